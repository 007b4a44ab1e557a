package otp

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)

func generate(t *testing.T, p Policy, now time.Time) (State, string) {
	t.Helper()
	s, code, err := p.Generate(now)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return s, code
}

func TestGenerate(t *testing.T) {
	p := DefaultPolicy()
	s, code := generate(t, p, t0)

	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q is not numeric", code)
		}
	}
	if s.Code != code {
		t.Error("state does not hold the code")
	}
	if !s.ExpiresAt.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("expires at %v", s.ExpiresAt)
	}
	if s.Used || s.Attempts != 0 || !s.LastAttemptAt.Equal(t0) {
		t.Errorf("unexpected fresh state %+v", s)
	}
}

func TestGenerateLength(t *testing.T) {
	for _, length := range []int{4, 8, 10} {
		_, code := generate(t, Policy{Length: length, TTL: time.Minute}, t0)
		if len(code) != length {
			t.Errorf("length %d: got %q", length, code)
		}
	}
	if _, _, err := (Policy{Length: 0}).Generate(t0); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestVerify(t *testing.T) {
	p := DefaultPolicy()
	fresh, code := generate(t, p, t0)

	testCases := []struct {
		name    string
		state   State
		code    string
		now     time.Time
		wantErr error
	}{
		{name: "correct code", state: fresh, code: code, now: t0.Add(time.Minute)},
		{name: "no code issued", state: State{}, code: code, now: t0, wantErr: ErrMissing},
		{name: "mismatch", state: fresh, code: "x" + code[1:], now: t0, wantErr: ErrMismatch},
		{name: "expired", state: fresh, code: code, now: t0.Add(11 * time.Minute), wantErr: ErrExpired},
		{name: "used", state: MarkUsed(fresh), code: code, now: t0, wantErr: ErrUsed},
		{name: "used and expired", state: MarkUsed(fresh), code: code, now: t0.Add(time.Hour), wantErr: ErrExpired},
		{name: "cleared", state: Clear(fresh), code: code, now: t0, wantErr: ErrMissing},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Verify(tc.state, tc.code, tc.now)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tc.wantErr)
			}
			if tc.state.IsZero() {
				if !got.IsZero() {
					t.Error("missing state should stay empty")
				}
				return
			}
			if got.Attempts != tc.state.Attempts+1 {
				t.Errorf("attempts = %d, want %d", got.Attempts, tc.state.Attempts+1)
			}
			if !got.LastAttemptAt.Equal(tc.now) {
				t.Errorf("last attempt = %v, want %v", got.LastAttemptAt, tc.now)
			}
		})
	}
}

func TestVerifyDoesNotMutateInput(t *testing.T) {
	s, code := generate(t, DefaultPolicy(), t0)
	_, _ = Verify(s, code, t0.Add(time.Second))
	if s.Attempts != 0 || !s.LastAttemptAt.Equal(t0) {
		t.Errorf("input state changed: %+v", s)
	}
}

func TestRegenerateInvalidatesPreviousCode(t *testing.T) {
	p := DefaultPolicy()
	first, oldCode := generate(t, p, t0)
	second, newCode := generate(t, p, t0.Add(time.Minute))

	if oldCode == newCode {
		// the two codes are random, a collision is possible but very unlikely
		t.Skip("codes collided")
	}

	_, err := Verify(second, oldCode, t0.Add(2*time.Minute))
	if !errors.Is(err, ErrMismatch) && !errors.Is(err, ErrExpired) {
		t.Errorf("old code verified against new state: %v", err)
	}
	if _, err := Verify(first, oldCode, t0.Add(2*time.Minute)); err != nil {
		t.Errorf("sanity check on first state failed: %v", err)
	}
}

func TestNoDoubleUse(t *testing.T) {
	s, code := generate(t, DefaultPolicy(), t0)

	s, err := Verify(s, code, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("first Verify() error = %v", err)
	}
	s = MarkUsed(s)

	if _, err := Verify(s, code, t0.Add(2*time.Second)); !errors.Is(err, ErrUsed) {
		t.Errorf("second Verify() error = %v, want ErrUsed", err)
	}
}

func TestCooldownRemaining(t *testing.T) {
	p := DefaultPolicy()
	s, _ := generate(t, p, t0)

	testCases := []struct {
		name  string
		state State
		now   time.Time
		want  time.Duration
	}{
		{name: "no code", state: State{}, now: t0, want: 0},
		{name: "just generated", state: s, now: t0, want: 30 * time.Second},
		{name: "ten seconds later", state: s, now: t0.Add(10 * time.Second), want: 20 * time.Second},
		{name: "window over", state: s, now: t0.Add(31 * time.Second), want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.CooldownRemaining(tc.state, tc.now); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerifyAttemptRestartsCooldown(t *testing.T) {
	p := DefaultPolicy()
	s, _ := generate(t, p, t0)

	s, _ = Verify(s, "000000x", t0.Add(25*time.Second))
	if got := p.CooldownRemaining(s, t0.Add(35*time.Second)); got != 20*time.Second {
		t.Errorf("cooldown = %v, want 20s measured from the failed attempt", got)
	}
}

func TestExpired(t *testing.T) {
	s, _ := generate(t, DefaultPolicy(), t0)
	if s.Expired(t0.Add(time.Minute)) {
		t.Error("fresh code reported expired")
	}
	if !s.Expired(t0.Add(time.Hour)) {
		t.Error("old code not reported expired")
	}
	if (State{}).Expired(t0) {
		t.Error("empty state cannot expire")
	}
}
