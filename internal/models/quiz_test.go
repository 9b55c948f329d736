package models

import (
	"encoding/json"
	"testing"
)

func TestAnswerValueUnmarshal(t *testing.T) {
	var answers []AnswerValue
	payload := `["an essay answer", 2, [0, 3], null]`
	if err := json.Unmarshal([]byte(payload), &answers); err != nil {
		t.Fatal(err)
	}
	if len(answers) != 4 {
		t.Fatalf("got %d answers", len(answers))
	}

	if answers[0].Kind != AnswerKindText || answers[0].Text != "an essay answer" {
		t.Errorf("string answer: %+v", answers[0])
	}
	if answers[1].Kind != AnswerKindChoice || answers[1].Choice != 2 {
		t.Errorf("number answer: %+v", answers[1])
	}
	if answers[2].Kind != AnswerKindMultiChoice || len(answers[2].Multi) != 2 {
		t.Errorf("array answer: %+v", answers[2])
	}
	if !answers[3].IsBlank() {
		t.Errorf("null answer: %+v", answers[3])
	}
}

func TestAnswerValueRejectsFractionalIndex(t *testing.T) {
	var a AnswerValue
	if err := json.Unmarshal([]byte(`1.5`), &a); err == nil {
		t.Error("expected error for fractional index")
	}
}

func TestAnswerValueEmptyStringIsBlank(t *testing.T) {
	var a AnswerValue
	if err := json.Unmarshal([]byte(`""`), &a); err != nil {
		t.Fatal(err)
	}
	if !a.IsBlank() {
		t.Error("empty string should be a blank answer")
	}
}

func TestAnswerValueMarshalRoundTrip(t *testing.T) {
	in := []AnswerValue{
		TextAnswer("hello"),
		ChoiceAnswer(0),
		{Kind: AnswerKindMultiChoice, Multi: []int{1, 2}},
		{},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["hello",0,[1,2],null]` {
		t.Errorf("wire form: %s", data)
	}

	var out []AnswerValue
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if out[i].Kind != in[i].Kind {
			t.Errorf("answer %d kind changed: %q -> %q", i, in[i].Kind, out[i].Kind)
		}
	}
}

func TestQuizByID(t *testing.T) {
	doc := &Document{Quizzes: []Quiz{{ID: "a"}, {ID: "b"}}}
	if doc.QuizByID("b") == nil {
		t.Error("existing quiz not found")
	}
	if doc.QuizByID("c") != nil {
		t.Error("missing quiz should be nil")
	}
}

func TestPageByNumber(t *testing.T) {
	doc := &Document{Pages: []Page{{PageNumber: 1}, {PageNumber: 2}}}
	if doc.PageByNumber(2) == nil {
		t.Error("existing page not found")
	}
	if doc.PageByNumber(9) != nil {
		t.Error("missing page should be nil")
	}
}
