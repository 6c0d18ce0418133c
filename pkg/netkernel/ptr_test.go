package netkernel

import "testing"

func TestPtrRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		tag  Tag
		ext  int32
		loc  uint32
	}{
		{"app", TagApp, 0, 17},
		{"sup-label", TagSup, 5, 1 << 20},
		{"ctr-id", TagCtr, 1234, 0},
		{"fun-id", TagFun, ptrExtMax, 42},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewPtr(c.tag, c.ext, c.loc)
			if p.Tag() != c.tag {
				t.Errorf("Tag() = %v, want %v", p.Tag(), c.tag)
			}
			if p.Ext() != c.ext {
				t.Errorf("Ext() = %d, want %d", p.Ext(), c.ext)
			}
			if p.Loc() != c.loc {
				t.Errorf("Loc() = %d, want %d", p.Loc(), c.loc)
			}
		})
	}
}

func TestNewPtrPanicsOnExtOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected NewPtr to panic on out-of-range ext")
		}
	}()
	NewPtr(TagCtr, ptrExtMax+1, 0)
}

func TestIsWHNF(t *testing.T) {
	whnf := map[Tag]bool{
		TagCtr: true, TagNum: true, TagLam: true, TagSup: true, TagEra: true, TagVar: true,
		TagApp: false, TagDp0: false, TagDp1: false, TagOp2: false, TagFun: false,
	}
	for tag, want := range whnf {
		if got := IsWHNF(tag); got != want {
			t.Errorf("IsWHNF(%v) = %v, want %v", tag, got, want)
		}
		if got := NewPtr(tag, 0, 0).IsWHNF(); got != want {
			t.Errorf("Ptr(%v).IsWHNF() = %v, want %v", tag, got, want)
		}
	}
}

func TestConstructors(t *testing.T) {
	if p := Num(-7); p.Tag() != TagNum || p.Ext() != -7 {
		t.Errorf("Num(-7) = %v", p)
	}
	if p := Var(9); p.Tag() != TagVar || p.Loc() != 9 {
		t.Errorf("Var(9) = %v", p)
	}
	if p := Op2(OpMul, 3); p.Tag() != TagOp2 || p.Ext() != OpMul || p.Loc() != 3 {
		t.Errorf("Op2(OpMul, 3) = %v", p)
	}
	if Era.Tag() != TagEra {
		t.Errorf("Era.Tag() = %v, want TagEra", Era.Tag())
	}
}

func TestTagString(t *testing.T) {
	if s := TagLam.String(); s != "LAM" {
		t.Errorf("TagLam.String() = %q, want LAM", s)
	}
	if s := Tag(200).String(); s == "" {
		t.Error("expected a non-empty string for an unrecognized tag")
	}
}
