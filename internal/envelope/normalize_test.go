// SPDX-License-Identifier: MIT

package envelope

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeNil(t *testing.T) {
	env := Normalize("X_FAILED", nil)
	if env.Success() || env.Code() != CodeEmptyResponse {
		t.Fatalf("got %v", env)
	}
}

func TestNormalizeTypedNil(t *testing.T) {
	// A handler returning a nil of a map type passes the interface
	// nil check; both typed forms must take the empty-response branch
	// rather than panicking on a nil-map write.
	for _, v := range []any{Envelope(nil), map[string]any(nil)} {
		env := Normalize("X_FAILED", v)
		if env.Success() || env.Code() != CodeEmptyResponse {
			t.Fatalf("Normalize(%T) = %v", v, env)
		}
	}
}

func TestNormalizeNonMapping(t *testing.T) {
	env := Normalize("X_FAILED", "just a string")
	if env.Code() != CodeInvalidResponse {
		t.Fatalf("code = %q", env.Code())
	}
	if env.Details()["type"] != "string" {
		t.Fatalf("details.type = %v", env.Details()["type"])
	}
}

func TestNormalizeInjectsSuccess(t *testing.T) {
	env := Normalize("X_FAILED", map[string]any{"count": 3})
	if !env.Success() {
		t.Fatalf("success not injected: %v", env)
	}
	if env["count"] != 3 {
		t.Fatalf("field lost: %v", env)
	}
}

func TestNormalizeFailureDefaults(t *testing.T) {
	got := Normalize("ADD_ELEMENT_FAILED", map[string]any{"success": false})
	want := Envelope{
		"success":    false,
		"error_code": "ADD_ELEMENT_FAILED",
		"error":      "An unknown error occurred",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeKeepsExplicitFailure(t *testing.T) {
	in := Envelope{
		"success":    false,
		"error_code": CodeNotFound,
		"error":      "no such element",
	}
	got := Normalize("X_FAILED", in)
	if got.Code() != CodeNotFound || got.Message() != "no such element" {
		t.Fatalf("explicit failure rewritten: %v", got)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"success": false}
	_ = Normalize("X_FAILED", in)
	if _, ok := in["error_code"]; ok {
		t.Fatal("input mutated by Normalize")
	}
}

func TestNormalizeSuccessPassthrough(t *testing.T) {
	in := OK(map[string]any{"elements": []any{"a", "b"}})
	got := Normalize("X_FAILED", in)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("success envelope altered (-want +got):\n%s", diff)
	}
}
