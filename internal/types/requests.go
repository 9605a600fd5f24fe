package types

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// OptimizeRequest asks for the full four-stage optimization.
// JobURL, when set and JobDescription is empty, is fetched to fill the description.
type OptimizeRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobTitle       string `json:"job_title" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url"`
}

// GuidanceRequest asks for the career guidance workflow.
type GuidanceRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobTitle       string `json:"job_title" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
}

// QualityRequest asks for the quality scoring workflow.
type QualityRequest struct {
	ResumeText string `json:"resume_text" validate:"required"`
	JobTitle   string `json:"job_title" validate:"required"`
}

// TokenRequest exchanges a client key for a JWT.
type TokenRequest struct {
	ClientID  string `json:"client_id" validate:"required"`
	ClientKey string `json:"client_key" validate:"required"`
}

// fieldMessages maps json field and validator tag to the message shown to callers.
var fieldMessages = map[string]string{
	"resume_text/required":     "Resume text is required",
	"job_title/required":       "Job title is required",
	"job_description/required": "Job description is required",
	"job_url/url":              "Job URL must be a valid URL",
	"client_id/required":       "Client ID is required",
	"client_key/required":      "Client key is required",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Normalize trims surrounding whitespace from every field.
func (r *OptimizeRequest) Normalize() {
	r.ResumeText = strings.TrimSpace(r.ResumeText)
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.JobURL = strings.TrimSpace(r.JobURL)
}

// Validate trims and validates the request.
func (r *OptimizeRequest) Validate() error {
	r.Normalize()
	return validateStruct(r)
}

// Validate trims and validates the request.
func (r *GuidanceRequest) Validate() error {
	r.ResumeText = strings.TrimSpace(r.ResumeText)
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	return validateStruct(r)
}

// Validate trims and validates the request.
func (r *QualityRequest) Validate() error {
	r.ResumeText = strings.TrimSpace(r.ResumeText)
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	return validateStruct(r)
}

// Validate trims and validates the request.
func (r *TokenRequest) Validate() error {
	r.ClientID = strings.TrimSpace(r.ClientID)
	return validateStruct(r)
}

// ValidateJobURL checks a job posting URL before it is fetched.
func ValidateJobURL(u string) error {
	if err := validatorInstance().Var(u, "required,url"); err != nil {
		return &ValidationError{Field: "job_url", Reason: fieldMessages["job_url/url"]}
	}
	return nil
}

// validateStruct returns the first failing field as a *ValidationError.
func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	msg, ok := fieldMessages[fe.Field()+"/"+fe.Tag()]
	if !ok {
		msg = fe.Field() + " is invalid"
	}
	return &ValidationError{Field: fe.Field(), Reason: msg}
}
