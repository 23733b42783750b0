package auth

import "testing"

func TestGate_NoPasswordConfigured(t *testing.T) {
	g := NewGate("")
	if g.Enabled() {
		t.Fatal("empty password must disable the gate")
	}
	if st := g.Start(1); st != StatusAuthorized {
		t.Fatalf("want immediate authorization, got %v", st)
	}
	if !g.Authorized(1) {
		t.Fatal("user must be authorized after /start")
	}
}

func TestGate_CorrectPasswordFlow(t *testing.T) {
	g := NewGate("xyz")
	if st := g.Start(1); st != StatusWaiting {
		t.Fatalf("want waiting after /start, got %v", st)
	}
	if g.Authorized(1) {
		t.Fatal("must not be authorized before password entry")
	}
	if st := g.SubmitPassword(1, "xyz"); st != StatusAuthorized {
		t.Fatalf("want authorized on match, got %v", st)
	}
	if !g.Authorized(1) {
		t.Fatal("user must stay authorized")
	}
	// Idempotent welcome.
	if st := g.Start(1); st != StatusAuthorized {
		t.Fatalf("/start must not drop authorization, got %v", st)
	}
}

func TestGate_WrongPasswordIsTerminalUntilRestart(t *testing.T) {
	g := NewGate("xyz")
	g.Start(1)
	if st := g.SubmitPassword(1, "wrong"); st != StatusDenied {
		t.Fatalf("want denied on mismatch, got %v", st)
	}
	// The correct password no longer helps without a fresh /start.
	if st := g.SubmitPassword(1, "xyz"); st != StatusDenied {
		t.Fatalf("denied must be terminal, got %v", st)
	}
	if g.Authorized(1) {
		t.Fatal("denied user must not be authorized")
	}
	// A new /start re-opens the prompt.
	if st := g.Start(1); st != StatusWaiting {
		t.Fatalf("/start must re-enter waiting, got %v", st)
	}
	if st := g.SubmitPassword(1, "xyz"); st != StatusAuthorized {
		t.Fatalf("want authorized after re-entry, got %v", st)
	}
}

func TestGate_UnknownUserIsUnset(t *testing.T) {
	g := NewGate("xyz")
	if st := g.Status(42); st != StatusUnset {
		t.Fatalf("want unset for unknown user, got %v", st)
	}
	if g.Authorized(42) {
		t.Fatal("unknown user must not be authorized")
	}
	// Password text from a user who never sent /start changes nothing.
	if st := g.SubmitPassword(42, "xyz"); st != StatusUnset {
		t.Fatalf("submission outside waiting must be a no-op, got %v", st)
	}
}

func TestGate_UsersAreIndependent(t *testing.T) {
	g := NewGate("xyz")
	g.Start(1)
	g.Start(2)
	g.SubmitPassword(1, "wrong")
	g.SubmitPassword(2, "xyz")
	if g.Status(1) != StatusDenied {
		t.Errorf("user 1: want denied, got %v", g.Status(1))
	}
	if g.Status(2) != StatusAuthorized {
		t.Errorf("user 2: want authorized, got %v", g.Status(2))
	}
}
