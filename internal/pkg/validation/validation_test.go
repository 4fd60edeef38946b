package validation

import (
	"encoding/base64"
	"testing"
)

type sampleRequest struct {
	Email       string `json:"email" validate:"required,email"`
	MobilePhone string `json:"mobile_phone" validate:"required,phone"`
	FullName    string `json:"full_name" validate:"required,person_name"`
	IDCard      string `json:"idcard_number" validate:"required,digits,len=16"`
	Selfie      string `json:"selfie_file" validate:"required,base64_image"`
	Password    string `json:"password" validate:"required,strong_password"`
	Question1   bool   `json:"question_1"`
	Question1Tx string `json:"question_1_text" validate:"required_if=Question1 true"`
}

func pngBase64() string {
	data := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0}
	return base64.StdEncoding.EncodeToString(data)
}

func validSample() sampleRequest {
	return sampleRequest{
		Email:       "applicant@example.com",
		MobilePhone: "081234567890",
		FullName:    "Siti Nur'aini",
		IDCard:      "3174012345678901",
		Selfie:      "data:image/png;base64," + pngBase64(),
		Password:    "secret123",
	}
}

func TestValidatePasses(t *testing.T) {
	if errs := Validate(validSample()); errs != nil {
		t.Fatalf("Validate() = %v, want nil", errs)
	}
}

func TestValidateReportsFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sampleRequest)
		field  string
		want   string
	}{
		{"missing email", func(r *sampleRequest) { r.Email = "" }, "email", "Email is required"},
		{"bad email", func(r *sampleRequest) { r.Email = "nope" }, "email", "Invalid email format"},
		{"bad phone", func(r *sampleRequest) { r.MobilePhone = "12345" }, "mobile_phone", "Invalid phone number"},
		{"digits in name", func(r *sampleRequest) { r.FullName = "R2D2" }, "full_name", "Full name may only contain letters, spaces and . ' -"},
		{"letters in id card", func(r *sampleRequest) { r.IDCard = "31740123456789AB" }, "idcard_number", "Idcard number may only contain digits"},
		{"short id card", func(r *sampleRequest) { r.IDCard = "123" }, "idcard_number", "Idcard number must be exactly 16 characters"},
		{"not an image", func(r *sampleRequest) { r.Selfie = base64.StdEncoding.EncodeToString([]byte("hello")) }, "selfie_file", "Selfie file must be a base64 encoded JPEG or PNG image"},
		{"weak password", func(r *sampleRequest) { r.Password = "password" }, "password", "Password must be at least 8 characters and contain letters and digits"},
		{"answer without text", func(r *sampleRequest) { r.Question1 = true }, "question_1_text", "Question 1 text is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSample()
			tt.mutate(&req)
			errs := Validate(req)
			if got := errs[tt.field]; got != tt.want {
				t.Fatalf("Validate()[%q] = %q, want %q (all: %v)", tt.field, got, tt.want, errs)
			}
		})
	}
}

func TestImageSignatures(t *testing.T) {
	if !IsJPEG([]byte{0xFF, 0xD8, 0xFF, 0xE0}) {
		t.Fatalf("IsJPEG() rejected a JPEG header")
	}
	if IsPNG([]byte("GIF89a")) {
		t.Fatalf("IsPNG() accepted a GIF header")
	}
}
