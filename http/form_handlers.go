package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"feedbacksense/inference"
	"feedbacksense/ml"
)

type formField struct {
	ID    string
	Spec  ml.FieldSpec
	Value string
	Min   string
	Max   string
	Error string
}

type formResult struct {
	Class   string
	Message string
}

type formPage struct {
	Fields []formField
	Result *formResult
}

func newFormPage() formPage {
	fields := make([]formField, len(ml.Schema))
	for i, spec := range ml.Schema {
		value := spec.Default
		if value == "" && len(spec.Choices) > 0 {
			value = spec.Choices[0]
		}
		fields[i] = formField{
			ID:    "field-" + strconv.Itoa(i),
			Spec:  spec,
			Value: value,
			Min:   strconv.FormatFloat(spec.Min, 'f', -1, 64),
			Max:   strconv.FormatFloat(spec.Max, 'f', -1, 64),
		}
	}
	return formPage{Fields: fields}
}

func (a *API) handleFormPage(w http.ResponseWriter, r *http.Request) {
	a.pages.render(w, http.StatusOK, "form.html", newFormPage())
}

func (a *API) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	page := newFormPage()
	if err := r.ParseForm(); err != nil {
		page.Result = &formResult{Class: "error", Message: "Could not read the form: " + err.Error()}
		a.pages.render(w, http.StatusBadRequest, "form.html", page)
		return
	}

	values := make(map[string]any, len(page.Fields))
	invalid := false
	for i := range page.Fields {
		field := &page.Fields[i]
		field.Value = strings.TrimSpace(r.PostForm.Get(field.Spec.Name))
		value, err := parseFormValue(field.Spec, field.Value)
		if err != nil {
			field.Error = err.Error()
			invalid = true
			continue
		}
		values[field.Spec.Name] = value
	}
	if !a.predictor.Ready() {
		a.renderFormFailure(w, r, page, a.unavailable())
		return
	}
	if invalid {
		page.Result = &formResult{Class: "error", Message: "Please correct the highlighted fields."}
		a.pages.render(w, http.StatusBadRequest, "form.html", page)
		return
	}

	rec, err := ml.RecordFromMap(values)
	if err != nil {
		a.renderFormFailure(w, r, page, &inference.InputError{Err: err})
		return
	}
	prediction, err := a.predictor.Predict(r.Context(), rec)
	if err != nil {
		a.renderFormFailure(w, r, page, err)
		return
	}
	page.Result = resultFor(prediction.Label)
	a.pages.render(w, http.StatusOK, "form.html", page)
}

func (a *API) renderFormFailure(w http.ResponseWriter, r *http.Request, page formPage, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("form prediction failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
	}
	page.Result = &formResult{Class: "error", Message: "Prediction failed: " + messageForError(err)}
	a.pages.render(w, status, "form.html", page)
}

func resultFor(label string) *formResult {
	switch label {
	case ml.LabelPositive:
		return &formResult{Class: "success", Message: "Predicted feedback: Positive"}
	case ml.LabelNegative:
		return &formResult{Class: "warning", Message: "Predicted feedback: Negative"}
	default:
		return &formResult{Class: "unknown", Message: "Predicted feedback: " + label}
	}
}

// parseFormValue enforces the control's domain: bounds for numbers and the
// literal choice list for selectors.
func parseFormValue(spec ml.FieldSpec, raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required", spec.Name)
	}
	switch spec.Kind {
	case ml.KindInteger:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", spec.Name)
		}
		if spec.Bounded && (float64(v) < spec.Min || float64(v) > spec.Max) {
			return nil, fmt.Errorf("%s must be between %g and %g", spec.Name, spec.Min, spec.Max)
		}
		return v, nil
	case ml.KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s must be a number", spec.Name)
		}
		if spec.Bounded && (v < spec.Min || v > spec.Max) {
			return nil, fmt.Errorf("%s must be between %g and %g", spec.Name, spec.Min, spec.Max)
		}
		return v, nil
	default:
		if !spec.HasChoice(raw) {
			return nil, fmt.Errorf("%s must be one of: %s", spec.Name, strings.Join(spec.Choices, ", "))
		}
		return raw, nil
	}
}
