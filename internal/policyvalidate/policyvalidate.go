// Package policyvalidate implements the Policy Validator (spec §4.H): it
// checks an AegisPolicy for structural validity and for references to
// entity types no registered recognizer can ever emit, before a
// sanitize call is allowed to start.
package policyvalidate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

// validate is the singleton validator instance, following the
// package-level singleton pattern used for struct validation elsewhere
// in this codebase.
var validate = validator.New()

// KnownTypes is supplied by the caller (the recognizer Registry) so this
// package never imports the recognizer package directly.
type KnownTypes map[string]struct{}

// Validate checks policy's struct tags and, when EntityTypes is
// non-empty, that every named type is one a recognizer can emit. It
// returns a fully-defaulted copy of policy: zero-value fields are filled
// in from aegistype.DefaultPolicy before the struct check runs.
func Validate(policy aegistype.AegisPolicy, known KnownTypes) (aegistype.AegisPolicy, error) {
	merged := mergeDefaults(policy)

	if err := validate.Struct(merged); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return merged, aegiserr.New(aegiserr.KindPolicyInvalid, describe(verrs))
		}
		return merged, aegiserr.Wrap(aegiserr.KindPolicyInvalid, "policy validation failed", err)
	}

	if unknown := unknownEntityTypes(merged.EntityTypes, known); len(unknown) > 0 {
		return merged, aegiserr.New(aegiserr.KindPolicyInvalid,
			fmt.Sprintf("unknown entity type(s): %s", strings.Join(unknown, ", ")))
	}

	return merged, nil
}

// mergeDefaults fills zero-value fields with aegistype.DefaultPolicy's
// values. A zero ConfidenceScore is indistinguishable from "unset" (a
// caller who genuinely wants zero-threshold behavior can't express it
// through this struct), so per spec §3's stated default it is treated
// as unset and filled in, same as Mode and Language.
func mergeDefaults(policy aegistype.AegisPolicy) aegistype.AegisPolicy {
	defaults := aegistype.DefaultPolicy()
	merged := policy
	if merged.Mode == "" {
		merged.Mode = defaults.Mode
	}
	if merged.Language == "" {
		merged.Language = defaults.Language
	}
	if merged.ConfidenceScore == 0 {
		merged.ConfidenceScore = defaults.ConfidenceScore
	}
	return merged
}

func unknownEntityTypes(requested []string, known KnownTypes) []string {
	if len(known) == 0 {
		return nil
	}
	var unknown []string
	for _, et := range requested {
		if _, ok := known[et]; !ok {
			unknown = append(unknown, et)
		}
	}
	return unknown
}

func describe(errs validator.ValidationErrors) string {
	var parts []string
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, err.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be >= %s", field, err.Param()))
		case "lte":
			parts = append(parts, fmt.Sprintf("%s must be <= %s", field, err.Param()))
		case "len":
			parts = append(parts, fmt.Sprintf("%s must be exactly %s characters", field, err.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s elements must be at least %s characters", field, err.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed validation on '%s'", field, err.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
