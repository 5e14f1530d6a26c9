package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/logging"
	"github.com/driftline/agentcore/model"
	"github.com/xeipuuv/gojsonschema"
)

// snippetLimit bounds the raw-text excerpt embedded in validation errors.
const snippetLimit = 240

// Options configure a structured-output resolution.
type Options struct {
	// Schema is a literal JSON Schema document. Takes precedence over Example.
	Schema []byte

	// Example is a JSON example converted via SchemaFromExample.
	Example []byte

	// AutoFix enables the recovery fallback when the schema-constrained call
	// fails. When false the primary error propagates unchanged.
	AutoFix bool

	Logger logging.Logger
}

// Result carries the outcome of a structured-output resolution.
type Result struct {
	// Object is the parsed, schema-valid output value.
	Object any

	// Text is the pretty-printed JSON serialization of Object, used as the
	// human-readable response text.
	Text string

	FinishReason string
	Usage        *model.TokenUsage
	Raw          *model.Response
}

// Resolver runs schema-constrained completions against a model and validates
// the result, optionally recovering JSON from malformed output.
type Resolver struct {
	model  model.Model
	schema map[string]any
	loader gojsonschema.JSONLoader
	opts   Options
	logger logging.Logger
}

// NewResolver builds a resolver from either a literal schema or an example.
func NewResolver(m model.Model, optFns ...func(o *Options)) (*Resolver, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var schema map[string]any
	var err error
	switch {
	case len(opts.Schema) > 0:
		schema, err = ParseSchema(opts.Schema)
	case len(opts.Example) > 0:
		schema, err = SchemaFromExample(opts.Example)
	default:
		err = core.NewValidationError("output", "structured output requires a schema or an example")
	}
	if err != nil {
		return nil, err
	}

	return &Resolver{
		model:  m,
		schema: schema,
		loader: gojsonschema.NewGoLoader(schema),
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

// Schema exposes the resolved JSON Schema document.
func (r *Resolver) Schema() map[string]any { return r.schema }

// Resolve performs the schema-constrained completion described by req and
// returns the validated output object. The request is forced non-streaming;
// structured runs produce a single final payload. When the primary call fails
// and AutoFix is enabled, a plain completion is attempted and its text run
// through the JSON recovery chain before re-validation.
func (r *Resolver) Resolve(ctx context.Context, req model.Request) (*Result, error) {
	primary := req
	primary.Stream = false
	primary.ResponseSchema = r.schema

	respCh, errCh := r.model.Generate(ctx, primary)
	final, err := model.Drain(respCh, errCh, nil)
	if err == nil {
		res, verr := r.accept(final)
		if verr == nil {
			return res, nil
		}
		err = verr
	}
	if !r.opts.AutoFix {
		return nil, err
	}

	r.logger.Warn("structured output primary call failed, attempting recovery", "error", err)
	return r.recover(ctx, req, err)
}

// accept parses and validates a final response against the schema.
func (r *Resolver) accept(final *model.Response) (*Result, error) {
	var value any
	if err := json.Unmarshal([]byte(strings.TrimSpace(final.Text)), &value); err != nil {
		return nil, validationFailure(final.Text, fmt.Sprintf("response is not valid JSON: %v", err))
	}
	if err := r.validate(value, final.Text); err != nil {
		return nil, err
	}
	return r.result(value, final), nil
}

// recover re-asks the model without the native schema constraint, instructing
// it to answer in JSON, then runs the recovery chain over the response text.
func (r *Resolver) recover(ctx context.Context, req model.Request, cause error) (*Result, error) {
	schemaJSON, _ := json.Marshal(r.schema)
	fallback := req
	fallback.Stream = false
	fallback.ResponseSchema = nil
	fallback.Messages = append(append([]model.Message{}, req.Messages...), model.Message{
		Role: core.RoleUser,
		Content: "Respond only with a JSON value matching this JSON Schema, with no surrounding text:\n" +
			string(schemaJSON),
	})

	respCh, errCh := r.model.Generate(ctx, fallback)
	final, err := model.Drain(respCh, errCh, nil)
	if err != nil {
		return nil, fmt.Errorf("structured output recovery call failed: %w (after %v)", err, cause)
	}

	value, ok := RecoverJSON(final.Text)
	if !ok {
		return nil, validationFailure(final.Text,
			fmt.Sprintf("no JSON value could be recovered from the response (after %v)", cause))
	}
	if err := r.validate(value, final.Text); err != nil {
		return nil, err
	}
	return r.result(value, final), nil
}

// validate checks a decoded value against the schema.
func (r *Resolver) validate(value any, raw string) error {
	res, err := gojsonschema.Validate(r.loader, gojsonschema.NewGoLoader(value))
	if err != nil {
		return validationFailure(raw, fmt.Sprintf("schema validation failed: %v", err))
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, desc := range res.Errors() {
			msgs = append(msgs, desc.String())
		}
		return validationFailure(raw, "output does not match schema: "+strings.Join(msgs, "; "))
	}
	return nil
}

func (r *Resolver) result(value any, final *model.Response) *Result {
	text, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		text = []byte(final.Text)
	}
	return &Result{
		Object:       value,
		Text:         string(text),
		FinishReason: final.FinishReason,
		Usage:        final.Usage,
		Raw:          final,
	}
}

// validationFailure builds a ValidationError with a bounded raw-text snippet.
func validationFailure(raw, message string) error {
	snippet := strings.TrimSpace(raw)
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + "..."
	}
	return &core.ValidationError{
		Field:   "structuredOutput",
		Message: message,
		Details: snippet,
	}
}
