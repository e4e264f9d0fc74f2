package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOperatorMiddleware_WithValidToken(t *testing.T) {
	m := NewOperatorMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		ref, ok := GetOperatorRefFromContext(r.Context())
		if !ok {
			t.Fatalf("operator ref not in context")
		}
		if ref != "op-42" {
			t.Fatalf("operator ref from context = %q, want op-42", ref)
		}
	})

	r := httptest.NewRequest(http.MethodPost, "/protected", nil)
	r.Header.Set(OperatorTokenHeader, m.Token("op-42"))

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestOperatorMiddleware_RefWithDots(t *testing.T) {
	m := NewOperatorMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		ref, ok := GetOperatorRefFromContext(r.Context())
		if !ok || ref != "store.east.cashier-3" {
			t.Fatalf("operator ref from context = %q, ok = %v", ref, ok)
		}
	})

	r := httptest.NewRequest(http.MethodPost, "/protected", nil)
	r.Header.Set(OperatorTokenHeader, m.Token("store.east.cashier-3"))

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestOperatorMiddleware_WithoutToken(t *testing.T) {
	m := NewOperatorMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/protected", nil)

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestOperatorMiddleware_TamperedToken(t *testing.T) {
	m := NewOperatorMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	token := m.Token("op-1")
	tampered := strings.Replace(token, "op-1", "op-2", 1)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/protected", nil)
	r.Header.Set(OperatorTokenHeader, tampered)

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestOperatorMiddleware_ForeignSecret(t *testing.T) {
	issuer := NewOperatorMiddleware("issuer-secret")
	verifier := NewOperatorMiddleware("other-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/protected", nil)
	r.Header.Set(OperatorTokenHeader, issuer.Token("op-1"))

	handler := verifier.Middleware(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}
