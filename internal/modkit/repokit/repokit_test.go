package repokit

import (
	"testing"

	"garden/internal/platform/store"
	"garden/internal/platform/testkit"
)

type fakeQ struct{ store.RowQuerier }

type bucketRepo struct{ q Queryer }

func TestMustBind(t *testing.T) {
	var bound Queryer
	b := BindFunc[bucketRepo](func(q Queryer) bucketRepo {
		bound = q
		return bucketRepo{q: q}
	})

	q := fakeQ{}
	r := MustBind[bucketRepo](b, q)
	if r.q != q || bound != q {
		t.Fatalf("repo bound to %v, want %v", r.q, q)
	}

	testkit.MustPanic(t, func() { MustBind[bucketRepo](b, nil) })
}
