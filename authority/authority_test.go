// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authority_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"testing"

	"v.io/x/anonize/authority"
	"v.io/x/anonize/internal/testrand"
	"v.io/x/anonize/ledger"
	"v.io/x/anonize/pairing"
	"v.io/x/anonize/registry"
)

// validSignature checks e(σ1, g2) = PK_SA · e(U_SA·vid + V_SA·id + H_RA, σ2).
func validSignature(params *authority.Params, vkSA, vkRA *authority.VerificationKey, vid *big.Int, e ledger.Entry) bool {
	var (
		group = params.Group
		lhs   = group.Pair(e.Sigma1, params.G2)
		base  = vkSA.U.ScalarMult(vid).Add(vkSA.V.ScalarMult(e.ID)).Add(vkRA.H)
		rhs   = vkSA.PK.Mul(group.Pair(base, e.Sigma2))
	)
	return lhs.Equal(rhs)
}

type setup struct {
	params *authority.Params
	ra     *authority.RegistrationAuthority
	sa     *authority.SurveyAuthority
}

func newSetup(t testing.TB, rand io.Reader, group pairing.Group, opts authority.IssueOptions) *setup {
	params, err := authority.NewParams(rand, group)
	if err != nil {
		t.Fatal(err)
	}
	ra, err := authority.NewRegistrationAuthority(rand, params)
	if err != nil {
		t.Fatal(err)
	}
	sa, err := authority.NewSurveyAuthority(rand, params, opts)
	if err != nil {
		t.Fatal(err)
	}
	return &setup{params, ra, sa}
}

func groups() []pairing.Group {
	return []pairing.Group{pairing.BN256(), pairing.BLS12381()}
}

func TestKeyWellFormed(t *testing.T) {
	for _, group := range groups() {
		s := newSetup(t, rand.Reader, group, authority.IssueOptions{})
		if !s.ra.WellFormed(s.params) {
			t.Errorf("%s: RA key is not well formed", group.Name())
		}
		if !s.sa.WellFormed(s.params) {
			t.Errorf("%s: SA key is not well formed", group.Name())
		}
		// Independent secrets give independent public keys.
		if s.ra.VerificationKey().PK.Equal(s.sa.VerificationKey().PK) {
			t.Errorf("%s: RA and SA share pk", group.Name())
		}
		vk := s.sa.VerificationKey()
		if vk.U.Equal(vk.V) || vk.V.Equal(vk.H) || vk.U.Equal(vk.H) {
			t.Errorf("%s: u, v and h are not independent", group.Name())
		}
	}
}

func TestGenerateKey(t *testing.T) {
	params, err := authority.NewParams(rand.Reader, pairing.BN256())
	if err != nil {
		t.Fatal(err)
	}
	vk, x, err := authority.GenerateKey(rand.Reader, params)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := vk.PK, params.Group.Pair(params.G, params.G2).Exp(x); !got.Equal(want) {
		t.Errorf("pk != e(g, g2)^x")
	}
	if got, want := vk.PK, params.Group.Pair(params.G, params.G2).Exp(new(big.Int).Add(x, big.NewInt(1))); got.Equal(want) {
		t.Errorf("pk == e(g, g2)^(x+1)")
	}
}

// A registry of five fresh identities, one survey over all of them.
func TestEndToEnd(t *testing.T) {
	for _, group := range groups() {
		for _, workers := range []int{1, 4} {
			s := newSetup(t, rand.Reader, group, authority.IssueOptions{Workers: workers})
			var participants []*registry.Participant
			for i := 0; i < 5; i++ {
				p, err := registry.NewParticipant(rand.Reader, group)
				if err != nil {
					t.Fatal(err)
				}
				if err := p.Register(s.ra.Registry()); err != nil {
					t.Fatal(err)
				}
				participants = append(participants, p)
			}

			vid, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), s.ra.Identities())
			if err != nil {
				t.Fatal(err)
			}
			if got, want := len(entries), 5; got != want {
				t.Fatalf("%s: Got %d entries, want %d", group.Name(), got, want)
			}
			for i, e := range entries {
				if e.ID.Cmp(participants[i].ID()) != 0 {
					t.Errorf("%s: entry %d is for %v, want %v", group.Name(), i, e.ID, participants[i].ID())
				}
				if e.Sigma1.IsIdentity() || e.Sigma2.IsIdentity() {
					t.Errorf("%s: entry %d has an identity element", group.Name(), i)
				}
				if !validSignature(s.params, s.sa.VerificationKey(), s.ra.VerificationKey(), vid, e) {
					t.Errorf("%s: entry %d does not satisfy the signature relation", group.Name(), i)
				}
			}
			stored, ok := s.sa.Entries(vid)
			if !ok || len(stored) != 5 {
				t.Errorf("%s: Got (%d entries, %v), want (5, true)", group.Name(), len(stored), ok)
			}
			if surveys := s.sa.Surveys(); len(surveys) != 1 || surveys[0].Cmp(vid) != 0 {
				t.Errorf("%s: Got surveys %v, want [%v]", group.Name(), surveys, vid)
			}
		}
	}
}

func TestSignatureBoundToSurveyAndIdentity(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	ids := []*big.Int{big.NewInt(1), big.NewInt(2)}
	vid, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), ids)
	if err != nil {
		t.Fatal(err)
	}
	vkSA, vkRA := s.sa.VerificationKey(), s.ra.VerificationKey()
	if validSignature(s.params, vkSA, vkRA, new(big.Int).Add(vid, big.NewInt(1)), entries[0]) {
		t.Errorf("signature verified for another survey")
	}
	swapped := ledger.Entry{ID: ids[1], Sigma1: entries[0].Sigma1, Sigma2: entries[0].Sigma2}
	if validSignature(s.params, vkSA, vkRA, vid, swapped) {
		t.Errorf("signature verified for another identity")
	}
	if validSignature(s.params, vkSA, vkSA, vid, entries[0]) {
		t.Errorf("signature verified under another registration authority")
	}
}

func TestFreshSurveyIdentifiers(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	ids := []*big.Int{big.NewInt(7)}
	vid1, e1, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), ids)
	if err != nil {
		t.Fatal(err)
	}
	vid2, e2, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), ids)
	if err != nil {
		t.Fatal(err)
	}
	if vid1.Cmp(vid2) == 0 {
		t.Errorf("two surveys share vid %v", vid1)
	}
	if e1[0].Sigma2.Equal(e2[0].Sigma2) {
		t.Errorf("two surveys reused randomness")
	}
	if got := len(s.sa.Surveys()); got != 2 {
		t.Errorf("Got %d surveys, want 2", got)
	}
}

func TestIndependentRandomnessPerIdentity(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	for trial := 0; trial < 20; trial++ {
		_, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), []*big.Int{big.NewInt(1), big.NewInt(2)})
		if err != nil {
			t.Fatal(err)
		}
		if entries[0].Sigma2.Equal(entries[1].Sigma2) {
			t.Fatalf("trial %d: two identities share σ2", trial)
		}
	}
}

func TestDuplicateIdentitiesOverwrite(t *testing.T) {
	for _, group := range groups() {
		s := newSetup(t, rand.Reader, group, authority.IssueOptions{})
		ids := []*big.Int{big.NewInt(3), big.NewInt(4), big.NewInt(3), big.NewInt(3)}
		vid, entries, err := s.sa.NewSurvey(testrand.New("duplicates"), s.ra.VerificationKey(), ids)
		if err != nil {
			t.Fatal(err)
		}

		// Replay the draws: vid first, then one r per listed identity.
		twin := testrand.New("duplicates")
		draws := make([]*big.Int, 1+len(ids))
		for i := range draws {
			if draws[i], err = group.RandomScalar(twin); err != nil {
				t.Fatal(err)
			}
		}
		if vid.Cmp(draws[0]) != 0 {
			t.Fatalf("%s: Got vid %v, want %v", group.Name(), vid, draws[0])
		}

		if got, want := len(entries), 2; got != want {
			t.Fatalf("%s: Got %d entries, want %d", group.Name(), got, want)
		}
		// Identity 3 keeps its first position and holds the signature made
		// with the r of its last occurrence.
		for i, want := range []struct {
			id int64
			r  *big.Int
		}{
			{3, draws[4]},
			{4, draws[2]},
		} {
			e := entries[i]
			if e.ID.Int64() != want.id {
				t.Errorf("%s: entry %d: Got id %v, want %d", group.Name(), i, e.ID, want.id)
			}
			if !e.Sigma2.Equal(s.params.G2.ScalarMult(want.r)) {
				t.Errorf("%s: entry %d: σ2 does not come from the expected draw", group.Name(), i)
			}
			if !validSignature(s.params, s.sa.VerificationKey(), s.ra.VerificationKey(), vid, e) {
				t.Errorf("%s: entry for %v is not valid", group.Name(), e.ID)
			}
		}
	}
}

func TestIdentitiesReducedModOrder(t *testing.T) {
	for _, group := range groups() {
		s := newSetup(t, rand.Reader, group, authority.IssueOptions{})
		q := group.Order()
		five := big.NewInt(5)

		// 5 and 5+q are the same scalar.
		_, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), []*big.Int{five, new(big.Int).Add(five, q)})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].ID.Cmp(five) != 0 {
			t.Errorf("%s: {5, 5+q}: Got %v, want a single entry for 5", group.Name(), entries)
		}

		// -5 is q-5, a different scalar from 5.
		vid, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), []*big.Int{five, big.NewInt(-5)})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := len(entries), 2; got != want {
			t.Fatalf("%s: {5, -5}: Got %d entries, want %d", group.Name(), got, want)
		}
		if want := new(big.Int).Sub(q, five); entries[1].ID.Cmp(want) != 0 {
			t.Errorf("%s: Got id %v, want %v", group.Name(), entries[1].ID, want)
		}
		for _, e := range entries {
			if !validSignature(s.params, s.sa.VerificationKey(), s.ra.VerificationKey(), vid, e) {
				t.Errorf("%s: entry for %v is not valid", group.Name(), e.ID)
			}
		}

		before := len(s.sa.Surveys())
		if _, _, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), []*big.Int{five, nil}); !errors.Is(err, pairing.ErrNilScalar) {
			t.Errorf("%s: nil identity: got %v, want ErrNilScalar", group.Name(), err)
		}
		if got := len(s.sa.Surveys()); got != before {
			t.Errorf("%s: failed issuance created a survey", group.Name())
		}
	}
}

func TestEmptySurvey(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{Workers: 4})
	vid, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Got %d entries, want 0", len(entries))
	}
	if stored, ok := s.sa.Entries(vid); !ok || len(stored) != 0 {
		t.Errorf("Got (%v, %v), want ([], true)", stored, ok)
	}
	if _, ok := s.sa.Entries(big.NewInt(1)); ok {
		t.Errorf("unknown survey reported as present")
	}
}

func TestUnregisteredIdentitiesAreSigned(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	stranger := big.NewInt(12345)
	if s.ra.Registry().Contains(stranger) {
		t.Fatal("registry should be empty")
	}
	_, entries, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), []*big.Int{stranger})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Got %d entries, want 1", len(entries))
	}
}

func TestReIdentifyAffectsFutureSurveysOnly(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	p, err := registry.NewParticipant(rand.Reader, s.params.Group)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Register(s.ra.Registry()); err != nil {
		t.Fatal(err)
	}
	before := p.ID()
	vid1, _, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), s.ra.Identities())
	if err != nil {
		t.Fatal(err)
	}
	old, err := p.ReIdentify(rand.Reader, s.ra.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if old.Cmp(before) != 0 {
		t.Errorf("Got %v, want %v", old, before)
	}
	vid2, _, err := s.sa.NewSurvey(rand.Reader, s.ra.VerificationKey(), s.ra.Identities())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.sa.Ledger().Lookup(vid1, before); !ok {
		t.Errorf("earlier survey lost the old identity")
	}
	if _, ok := s.sa.Ledger().Lookup(vid2, before); ok {
		t.Errorf("later survey still signs the old identity")
	}
	if _, ok := s.sa.Ledger().Lookup(vid2, p.ID()); !ok {
		t.Errorf("later survey does not sign the new identity")
	}
}

func marshalEntries(t *testing.T, group pairing.Group, entries []ledger.Entry) [][]byte {
	var out [][]byte
	for _, e := range entries {
		b, err := authority.MarshalEntry(group, e)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b)
	}
	return out
}

func TestIssueIndependentOfWorkers(t *testing.T) {
	for _, group := range groups() {
		s := newSetup(t, testrand.New("keys"), group, authority.IssueOptions{})
		var ids []*big.Int
		for i := 0; i < 16; i++ {
			ids = append(ids, big.NewInt(int64(100+i%12)))
		}
		vkSA, vkRA := s.sa.VerificationKey(), s.ra.VerificationKey()
		sk := big.NewInt(99)

		var (
			vids    []*big.Int
			results [][][]byte
		)
		for _, workers := range []int{1, 3, 8} {
			vid, entries, err := authority.Issue(testrand.New("issue"), s.params, sk, vkSA, vkRA, ids, nil, authority.IssueOptions{Workers: workers})
			if err != nil {
				t.Fatal(err)
			}
			vids = append(vids, vid)
			results = append(results, marshalEntries(t, group, entries))
		}
		for i := 1; i < len(results); i++ {
			if vids[i].Cmp(vids[0]) != 0 {
				t.Errorf("%s: vid depends on the number of workers", group.Name())
			}
			if len(results[i]) != len(results[0]) {
				t.Fatalf("%s: Got %d entries, want %d", group.Name(), len(results[i]), len(results[0]))
			}
			for j := range results[i] {
				if !bytes.Equal(results[i][j], results[0][j]) {
					t.Errorf("%s: entry %d depends on the number of workers", group.Name(), j)
				}
			}
		}
	}
}

func TestRandomnessFailure(t *testing.T) {
	s := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	ids := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4), big.NewInt(5)}
	// Five identities need at least six 32-byte draws.
	for _, n := range []int{0, 8, 32, 64, 96} {
		_, _, err := s.sa.NewSurvey(testrand.Failing(n), s.ra.VerificationKey(), ids)
		if !errors.Is(err, testrand.ErrExhausted) && !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Failing(%d): got %v, want a read error", n, err)
		}
	}
	if got := len(s.sa.Surveys()); got != 0 {
		t.Errorf("failed issuance created %d surveys", got)
	}

	params, err := authority.NewParams(rand.Reader, pairing.BN256())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := authority.GenerateKey(testrand.Failing(40), params); err == nil {
		t.Errorf("GenerateKey succeeded with a failing reader")
	}
	if _, err := authority.NewParams(testrand.Failing(0), pairing.BN256()); err == nil {
		t.Errorf("NewParams succeeded with a failing reader")
	}
}

func TestGroupMismatch(t *testing.T) {
	bn := newSetup(t, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	bls := newSetup(t, rand.Reader, pairing.BLS12381(), authority.IssueOptions{})
	_, _, err := bn.sa.NewSurvey(rand.Reader, bls.ra.VerificationKey(), []*big.Int{big.NewInt(1)})
	if !errors.Is(err, authority.ErrGroupMismatch) {
		t.Errorf("Got %v, want ErrGroupMismatch", err)
	}
	if bn.sa.WellFormed(bls.params) {
		t.Errorf("key reported well formed under other group's params")
	}
}

var (
	benchSetup *setup
	benchIDs   []*big.Int
)

func benchmarkSetup(b *testing.B, n int) {
	if benchSetup == nil {
		benchSetup = newSetup(b, rand.Reader, pairing.BN256(), authority.IssueOptions{})
	}
	benchIDs = benchIDs[:0]
	for i := 0; i < n; i++ {
		id, err := benchSetup.params.Group.RandomScalar(rand.Reader)
		if err != nil {
			b.Fatal(err)
		}
		benchIDs = append(benchIDs, id)
	}
}

func BenchmarkGenerateKey(b *testing.B) {
	benchmarkSetup(b, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := authority.GenerateKey(rand.Reader, benchSetup.params); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkIssue(b *testing.B, n, workers int) {
	benchmarkSetup(b, n)
	vkSA, vkRA := benchSetup.sa.VerificationKey(), benchSetup.ra.VerificationKey()
	sk := big.NewInt(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := authority.Issue(rand.Reader, benchSetup.params, sk, vkSA, vkRA, benchIDs, nil, authority.IssueOptions{Workers: workers}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIssue5(b *testing.B)           { benchmarkIssue(b, 5, 1) }
func BenchmarkIssue100(b *testing.B)         { benchmarkIssue(b, 100, 1) }
func BenchmarkIssue100Workers8(b *testing.B) { benchmarkIssue(b, 100, 8) }
