package telegram

import (
	"encoding/json"
	"testing"
)

func TestParseUpdates(t *testing.T) {
	raw := json.RawMessage(`[
		{
			"update_id": 10,
			"message": {
				"message_id": 1,
				"from": {"id": 100, "first_name": "Иван"},
				"chat": {"id": 200, "type": "private"},
				"text": "/start"
			}
		},
		{
			"update_id": 11,
			"message": {
				"message_id": 2,
				"from": {"id": 100, "first_name": "Иван"},
				"chat": {"id": 200, "type": "private"},
				"web_app_data": {"data": "{\"amount\":\"250\"}", "button_text": "Оформить пополнение"}
			}
		}
	]`)

	updates, err := parseUpdates(raw)
	if err != nil {
		t.Fatalf("parseUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}

	first := updates[0]
	if first.UpdateID != 10 || first.Message == nil || first.Message.Text != "/start" {
		t.Errorf("unexpected first update: %+v", first)
	}
	if first.WebAppData != nil {
		t.Errorf("first update must not carry web_app_data")
	}

	second := updates[1]
	if second.WebAppData == nil {
		t.Fatal("web_app_data lost during parsing")
	}
	if second.WebAppData.Data != `{"amount":"250"}` {
		t.Errorf("web_app_data.data = %q", second.WebAppData.Data)
	}
	if second.Message == nil || second.Message.From.ID != 100 {
		t.Errorf("base update fields lost: %+v", second.Message)
	}
}

func TestParseUpdates_Garbage(t *testing.T) {
	if _, err := parseUpdates(json.RawMessage(`{"not":"a list"}`)); err == nil {
		t.Error("expected error for non-array result")
	}
}
