// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authority

import "errors"

var (
	ErrGroupMismatch = errors.New("keys and parameters use different pairing groups")
	errBadHeader     = errors.New("invalid header")
)
