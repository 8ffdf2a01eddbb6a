package relay

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrPermissionDenied is the kind of a failure caused by a missing grant, such as manage
	// webhooks or manage messages.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRequestFailed is the kind of every other platform failure.
	ErrRequestFailed = errors.New("request failed")
)

type Step string

const (
	StepResolve Step = "resolve channel"
	StepAcquire Step = "acquire webhook"
	StepFetch   Step = "fetch attachment"
	StepSend    Step = "send"
	StepDelete  Step = "delete original"
)

// StepError is a platform failure at one step of a relay. It matches its Kind with errors.Is.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func newStepError(step Step, err error) *StepError {
	return &StepError{
		Step: step,
		Kind: classify(err),
		Err:  err,
	}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// PermissionDenied reports whether err is a permission failure.
func PermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
		return ErrPermissionDenied
	}
	return ErrRequestFailed
}
