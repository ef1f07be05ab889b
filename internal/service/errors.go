package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/splitcircle/internal/apperr"
)

var codes = map[apperr.Kind]connect.Code{
	apperr.KindValidation:    connect.CodeInvalidArgument,
	apperr.KindPermission:    connect.CodePermissionDenied,
	apperr.KindIndexRequired: connect.CodeFailedPrecondition,
	apperr.KindInvalidState:  connect.CodeAborted,
	apperr.KindNotFound:      connect.CodeNotFound,
	apperr.KindUnexpected:    connect.CodeInternal,
}

// toConnectError converts an engine error into a Connect error whose detail carries the error
// kind and the user-facing guidance for it.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	kind := apperr.KindOf(err)
	code, ok := codes[kind]
	if !ok {
		code = connect.CodeInternal
	}

	msg := err.Error()
	if kind == apperr.KindUnexpected {
		// Internal causes stay in the logs.
		var e *apperr.Error
		if errors.As(err, &e) {
			msg = e.Message
		} else {
			msg = "internal error"
		}
	}

	cerr := connect.NewError(code, errors.New(msg))
	detail, err := structpb.NewStruct(map[string]any{
		"kind":     string(kind),
		"guidance": kind.Guidance(),
	})
	if err == nil {
		if d, err := connect.NewErrorDetail(detail); err == nil {
			cerr.AddDetail(d)
		}
	}
	return cerr
}

// KindFromError reads the error kind a server attached to a Connect error.
func KindFromError(err error) (apperr.Kind, bool) {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return "", false
	}
	for _, d := range connectErr.Details() {
		msg, err := d.Value()
		if err != nil {
			continue
		}
		s, ok := msg.(*structpb.Struct)
		if !ok {
			continue
		}
		if kind, ok := s.GetFields()["kind"]; ok {
			return apperr.Kind(kind.GetStringValue()), true
		}
	}
	return "", false
}

// validationError turns validator failures into a Validation error naming the first field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return toConnectError(apperr.Validation("%s is invalid (%s)", fe.Field(), ruleText(fe)))
	}
	return toConnectError(apperr.Validation("%s", err.Error()))
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return fe.Tag()
}
