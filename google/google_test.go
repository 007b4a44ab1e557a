package google

import (
	"context"
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
)

const testClientID = "client-123.apps.googleusercontent.com"

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, mutate func(jwt.MapClaims)) string {
	t.Helper()
	now := time.Now()
	c := jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "1234567890",
		"email":          "ana@gmail.com",
		"email_verified": true,
		"name":           "Ana",
		"picture":        "https://lh3.googleusercontent.com/a/photo",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(c)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestVerifyIDToken(t *testing.T) {
	key := newTestKey(t)
	otherKey := newTestKey(t)
	v := NewVerifierWithKeySet(Config{ClientID: testClientID}, &oidc.StaticKeySet{
		PublicKeys: []stdcrypto.PublicKey{&key.PublicKey},
	})

	testCases := []struct {
		name    string
		token   string
		want    *Identity
		wantErr error
	}{
		{
			name:  "valid",
			token: signIDToken(t, key, nil),
			want: &Identity{
				ExternalID:    "1234567890",
				Email:         "ana@gmail.com",
				Name:          "Ana",
				Picture:       "https://lh3.googleusercontent.com/a/photo",
				EmailVerified: true,
			},
		},
		{
			name: "issuer without scheme",
			token: signIDToken(t, key, func(c jwt.MapClaims) {
				c["iss"] = "accounts.google.com"
			}),
			want: &Identity{
				ExternalID:    "1234567890",
				Email:         "ana@gmail.com",
				Name:          "Ana",
				Picture:       "https://lh3.googleusercontent.com/a/photo",
				EmailVerified: true,
			},
		},
		{
			name: "unverified email is reported, not rejected",
			token: signIDToken(t, key, func(c jwt.MapClaims) {
				c["email_verified"] = false
				delete(c, "picture")
			}),
			want: &Identity{
				ExternalID: "1234567890",
				Email:      "ana@gmail.com",
				Name:       "Ana",
			},
		},
		{
			name: "wrong audience",
			token: signIDToken(t, key, func(c jwt.MapClaims) {
				c["aud"] = "someone-else"
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name: "foreign issuer",
			token: signIDToken(t, key, func(c jwt.MapClaims) {
				c["iss"] = "https://evil.example.com"
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			token: signIDToken(t, key, func(c jwt.MapClaims) {
				c["exp"] = time.Now().Add(-time.Hour).Unix()
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "signed by another key",
			token:   signIDToken(t, otherKey, nil),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := v.VerifyIDToken(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("identity mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVerifyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			fmt.Fprint(w, `{"sub":"42","email":"bo@gmail.com","email_verified":"true","name":"Bo"}`)
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	v := NewVerifierWithKeySet(Config{
		ClientID:    testClientID,
		UserInfoURL: srv.URL,
		HTTPClient:  srv.Client(),
	}, &oidc.StaticKeySet{})

	got, err := v.VerifyAccessToken(context.Background(), "good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &Identity{ExternalID: "42", Email: "bo@gmail.com", Name: "Bo", EmailVerified: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}

	if _, err := v.VerifyAccessToken(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("rejected token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := v.VerifyAccessToken(context.Background(), "broken"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("upstream failure: expected ErrUnavailable, got %v", err)
	}
	if _, err := v.VerifyAccessToken(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("empty token: expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyAccessTokenTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	v := NewVerifierWithKeySet(Config{
		ClientID:    testClientID,
		UserInfoURL: srv.URL,
		Timeout:     50 * time.Millisecond,
	}, &oidc.StaticKeySet{})

	if _, err := v.VerifyAccessToken(context.Background(), "slow"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestNewVerifierRequiresClientID(t *testing.T) {
	if _, err := NewVerifier(Config{}); err == nil {
		t.Error("expected error without client id")
	}
}
