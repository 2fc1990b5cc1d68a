package inputval

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	type registerInput struct {
		Name     string `json:"name" validate:"notblank,max=10" label:"Name"`
		Email    string `json:"email" validate:"required,email" label:"Email"`
		Password string `json:"password" validate:"min=6" label:"Password"`
	}

	tests := []struct {
		name       string
		input      registerInput
		wantErrors bool
		wantFirst  string
		wantField  string
	}{
		{
			name:  "valid input",
			input: registerInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"},
		},
		{
			name:       "blank name",
			input:      registerInput{Name: "   ", Email: "ann@example.com", Password: "secret1"},
			wantErrors: true,
			wantFirst:  "Name is required.",
			wantField:  "name",
		},
		{
			name:       "name too long",
			input:      registerInput{Name: "VeryLongNameThatExceedsLimit", Email: "ann@example.com", Password: "secret1"},
			wantErrors: true,
			wantFirst:  "Name must be at most 10 characters.",
			wantField:  "name",
		},
		{
			name:       "invalid email",
			input:      registerInput{Name: "Ann", Email: "nope", Password: "secret1"},
			wantErrors: true,
			wantFirst:  "A valid email address is required.",
			wantField:  "email",
		},
		{
			name:       "short password",
			input:      registerInput{Name: "Ann", Email: "ann@example.com", Password: "abc"},
			wantErrors: true,
			wantFirst:  "Password must be at least 6 characters.",
			wantField:  "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)

			if result.HasErrors() != tt.wantErrors {
				t.Fatalf("HasErrors = %v, want %v (%s)", result.HasErrors(), tt.wantErrors, result.Fields())
			}
			if !tt.wantErrors {
				return
			}
			if result.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", result.First(), tt.wantFirst)
			}
			if _, ok := result.Fields()[tt.wantField]; !ok {
				t.Errorf("Fields() = %v, want key %q", result.Fields(), tt.wantField)
			}
		})
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type taskInput struct {
		Status string `json:"status" validate:"omitempty,taskstatus" label:"Status"`
		Secret string `json:"secret" validate:"min=6,max=72,bcryptlen" label:"Password"`
	}

	if r := Validate(taskInput{Status: "in-progress", Secret: "secret1"}); r.HasErrors() {
		t.Errorf("valid input has errors: %v", r.Fields())
	}
	if r := Validate(&taskInput{Secret: "secret1"}); r.HasErrors() {
		t.Errorf("empty status should be allowed: %v", r.Fields())
	}

	// 40 characters, 80 bytes: within max=72 runes but over bcrypt's limit.
	r := Validate(taskInput{Status: "done", Secret: strings.Repeat("é", 40)})
	if len(r.Errors) != 2 {
		t.Fatalf("want 2 errors, got %d: %v", len(r.Errors), r.Fields())
	}
	if want := "Status must be one of: todo, in-progress, completed."; r.Errors[0].Message != want {
		t.Errorf("status message = %q, want %q", r.Errors[0].Message, want)
	}
	if want := "Password must be at most 72 bytes."; r.Errors[1].Message != want {
		t.Errorf("password message = %q, want %q", r.Errors[1].Message, want)
	}
	if r := Validate(taskInput{Secret: strings.Repeat("a", 72)}); r.HasErrors() {
		t.Errorf("72 ASCII bytes should pass: %v", r.Fields())
	}
}

func TestResult_FirstAndFields(t *testing.T) {
	if got := (&Result{}).First(); got != "" {
		t.Errorf("First() = %q, want empty", got)
	}
	r := &Result{Errors: []FieldError{
		{Field: "title", Message: "Error 1"},
		{Field: "title", Message: "Error 2"},
		{Field: "status", Message: "Error 3"},
	}}
	if got := r.First(); got != "Error 1" {
		t.Errorf("First() = %q, want %q", got, "Error 1")
	}
	f := r.Fields()
	if len(f) != 2 || f["title"] != "Error 1" || f["status"] != "Error 3" {
		t.Errorf("Fields() = %v", f)
	}
}
