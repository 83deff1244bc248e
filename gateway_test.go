package blendsafe

import "testing"

func TestDerivationPath(t *testing.T) {
	p := DerivationPath{[]byte("blendsafe"), []byte{0xff}}
	if got, want := p.String(), "/626c656e6473616665/ff"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}

	c := p.Copy()
	c[1][0] = 0
	if p[1][0] != 0xff {
		t.Fatal("copy shares memory")
	}
}
