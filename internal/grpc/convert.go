package grpc

import (
	"fmt"
	"math"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/feedback-insights/internal/service"
)

const dateLayout = "2006-01-02"

// toStruct renders v through its JSON tags so the wire shape matches the
// cached and documented JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build response struct: %w", err)
	}
	return out, nil
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	v := stringField(req, name)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return v, nil
}

// parseBound reads an optional date. A date-only upper bound covers the
// whole day.
func parseBound(req *structpb.Struct, name string, upper bool) (time.Time, error) {
	raw := stringField(req, name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s must be YYYY-MM-DD or RFC 3339, got %q", name, raw)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func parseTrainerRange(req *structpb.Struct) (from, to time.Time, err error) {
	if from, err = parseBound(req, "from", false); err != nil {
		return
	}
	if to, err = parseBound(req, "to", true); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = status.Error(codes.InvalidArgument, "to must not be before from")
	}
	return
}

func parseSubmission(req *structpb.Struct) (service.FeedbackSubmission, error) {
	sub := service.FeedbackSubmission{
		TrainingID:  stringField(req, "training_id"),
		TrainerName: stringField(req, "trainer_name"),
		StudentName: stringField(req, "student_name"),
		SubjectName: stringField(req, "subject_name"),
	}

	if ratings := req.GetFields()["ratings"].GetStructValue(); ratings != nil {
		sub.Ratings = make(map[string]int, len(ratings.GetFields()))
		for metric, v := range ratings.GetFields() {
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
				return sub, status.Errorf(codes.InvalidArgument, "rating for %q must be a whole number", metric)
			}
			sub.Ratings[metric] = int(n.NumberValue)
		}
	}

	if answers := req.GetFields()["answers"].GetStructValue(); answers != nil {
		sub.Answers = make(map[string]string, len(answers.GetFields()))
		for question, v := range answers.GetFields() {
			s, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return sub, status.Errorf(codes.InvalidArgument, "answer to %q must be text", question)
			}
			sub.Answers[question] = s.StringValue
		}
	}
	return sub, nil
}
