package model

import (
	"time"

	json "github.com/goccy/go-json"
)

type FieldType string

const (
	FieldText         FieldType = "text"
	FieldNumber       FieldType = "number"
	FieldSingleChoice FieldType = "single_choice"
	FieldEmail        FieldType = "email"
	FieldTextarea     FieldType = "textarea"
)

// Known reports whether t is one of the supported field types.
func (t FieldType) Known() bool {
	switch t {
	case FieldText, FieldNumber, FieldSingleChoice, FieldEmail, FieldTextarea:
		return true
	}
	return false
}

// TakesOptions reports whether t must carry a choice set.
func (t FieldType) TakesOptions() bool {
	return t == FieldSingleChoice
}

type Field struct {
	ID       int       `json:"id,omitempty"`
	Label    string    `json:"label"`
	Type     FieldType `json:"field_type"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

type Form struct {
	ID         int    `json:"id,omitempty"`
	Title      string `json:"title"`
	UniqueLink string `json:"unique_link"`
	FieldIDs   []int  `json:"field_ids"`

	// Responses is only populated by form listings.
	Responses int `json:"response_count,omitempty"`
}

// FormDetails is a Form with its member fields resolved, in position order.
type FormDetails struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	UniqueLink string  `json:"unique_link"`
	Fields     []Field `json:"fields"`
}

type Response struct {
	ID          int               `json:"id"`
	FormID      int               `json:"form_id"`
	Answers     map[string]string `json:"answers"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// Options and answers are stored as JSON text columns.

func EncodeOptions(options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(options)
	return string(raw), err
}

func DecodeOptions(raw string) (options []string, err error) {
	if raw == "" {
		return nil, nil
	}
	err = json.Unmarshal([]byte(raw), &options)
	return
}

func EncodeAnswers(answers map[string]string) (string, error) {
	raw, err := json.Marshal(answers)
	return string(raw), err
}

func DecodeAnswers(raw string) (answers map[string]string, err error) {
	err = json.Unmarshal([]byte(raw), &answers)
	return
}
