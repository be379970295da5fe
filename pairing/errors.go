// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pairing

import "errors"

var (
	ErrUnknownGroup    = errors.New("unknown pairing group")
	ErrInvalidEncoding = errors.New("invalid group element encoding")
	ErrNilScalar       = errors.New("nil scalar")
)
