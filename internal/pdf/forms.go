package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
)

// ─── AcroForm Operations ────────────────────────────────────────────────────

// FieldInfo describes one interactive form field.
type FieldInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Value   string   `json:"value,omitempty"`
	Options []string `json:"options,omitempty"`
	Locked  bool     `json:"locked,omitempty"`
}

// ExtractFields lists the document's interactive form fields.
func ExtractFields(doc []byte) ([]FieldInfo, error) {
	fields, err := api.FormFields(bytes.NewReader(doc), conf())
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	infos := make([]FieldInfo, 0, len(fields))
	for _, f := range fields {
		infos = append(infos, FieldInfo{
			Name:    f.Name,
			Type:    fieldTypeName(f.Typ),
			Value:   f.V,
			Options: splitOpts(f.Opts),
			Locked:  f.Locked,
		})
	}
	return infos, nil
}

// splitOpts reverses pdfcpu's comma-joining of option values (form.Field.Opts
// is built with strings.Join(opts, ",")).
func splitOpts(opts string) []string {
	if opts == "" {
		return nil
	}
	return strings.Split(opts, ",")
}

func fieldTypeName(t form.FieldType) string {
	switch t {
	case form.FTText:
		return "text"
	case form.FTCheckBox:
		return "checkbox"
	case form.FTComboBox:
		return "dropdown"
	case form.FTListBox:
		return "listbox"
	case form.FTRadioButtonGroup:
		return "radio"
	case form.FTDate:
		return "date"
	default:
		return "unknown"
	}
}

// fill document shapes matching the library's form JSON format.
type fillDoc struct {
	Forms []fillForm `json:"forms"`
}

type fillForm struct {
	TextFields  []fillText  `json:"textfield,omitempty"`
	CheckBoxes  []fillCheck `json:"checkbox,omitempty"`
	RadioGroups []fillText  `json:"radiobuttongroup,omitempty"`
	ComboBoxes  []fillText  `json:"combobox,omitempty"`
	ListBoxes   []fillList  `json:"listbox,omitempty"`
	DateFields  []fillText  `json:"datefield,omitempty"`
}

type fillText struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type fillCheck struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

type fillList struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// FillForm sets each named field to the given value, dispatching on the
// field's declared type. Names with no matching field are silently
// skipped; the count of fields actually filled is returned.
func FillForm(doc []byte, values map[string]string) ([]byte, int, error) {
	fields, err := api.FormFields(bytes.NewReader(doc), conf())
	if err != nil {
		return nil, 0, fmt.Errorf("list form fields: %w", err)
	}

	var ff fillForm
	filled := 0
	for _, f := range fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}
		filled++
		switch f.Typ {
		case form.FTCheckBox:
			ff.CheckBoxes = append(ff.CheckBoxes, fillCheck{Name: f.Name, Value: isTruthy(value)})
		case form.FTComboBox:
			ff.ComboBoxes = append(ff.ComboBoxes, fillText{Name: f.Name, Value: value})
		case form.FTListBox:
			ff.ListBoxes = append(ff.ListBoxes, fillList{Name: f.Name, Values: []string{value}})
		case form.FTRadioButtonGroup:
			ff.RadioGroups = append(ff.RadioGroups, fillText{Name: f.Name, Value: value})
		case form.FTDate:
			ff.DateFields = append(ff.DateFields, fillText{Name: f.Name, Value: value})
		default:
			ff.TextFields = append(ff.TextFields, fillText{Name: f.Name, Value: value})
		}
	}
	if filled == 0 {
		return doc, 0, nil
	}

	payload, err := json.Marshal(fillDoc{Forms: []fillForm{ff}})
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	if err := api.FillForm(bytes.NewReader(doc), bytes.NewReader(payload), &buf, conf()); err != nil {
		return nil, 0, fmt.Errorf("fill form: %w", err)
	}
	return buf.Bytes(), filled, nil
}

func isTruthy(v string) bool {
	switch v {
	case "true", "1", "yes", "on", "checked":
		return true
	}
	return false
}

// FlattenForm locks every form field read-only so filled values can no
// longer be edited.
func FlattenForm(doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.LockFormFields(bytes.NewReader(doc), &buf, nil, conf()); err != nil {
		return nil, fmt.Errorf("flatten form: %w", err)
	}
	return buf.Bytes(), nil
}
