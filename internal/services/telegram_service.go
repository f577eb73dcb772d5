package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// TelegramService pushes best-effort notifications to a birddog's linked
// chat. Everything here is fire-and-forget: a nil service, empty token or
// unlinked chat is a silent no-op, and delivery failures never bubble into
// the mutation that triggered them.
type TelegramService struct {
	token   string
	baseURL string
	dryRun  bool
	client  *http.Client
}

func NewTelegramService(botToken string, dryRun bool) *TelegramService {
	return &TelegramService{
		token:   botToken,
		baseURL: fmt.Sprintf("https://api.telegram.org/bot%s", botToken),
		dryRun:  dryRun,
		client:  &http.Client{},
	}
}

type tgResp struct {
	Ok          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.token == "" || chatID == 0 {
		log.Printf("[tg][skip] token or chatID empty (token? %v chatID=%d)", t != nil && t.token != "", chatID)
		return nil
	}
	if t.dryRun {
		log.Printf("[tg][dry-run] chatID=%d text=%q", chatID, text)
		return nil
	}
	body := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	b, _ := json.Marshal(body)
	url := t.baseURL + "/sendMessage"
	req, _ := http.NewRequest("POST", url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		log.Printf("[tg][send][err] http: %v", err)
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var api tgResp
	_ = json.Unmarshal(respBody, &api)
	if resp.StatusCode != 200 || !api.Ok {
		return fmt.Errorf("telegram sendMessage failed: status=%d ok=%v desc=%s", resp.StatusCode, api.Ok, api.Description)
	}
	return nil
}

// NotifyStageCompleted pings the birddog when someone works their lead.
func (t *TelegramService) NotifyStageCompleted(chatID int64, leadName, stageTitle, actorName string) {
	text := fmt.Sprintf("✅ <b>%s</b>: stage %q completed by %s", leadName, stageTitle, actorName)
	if err := t.SendMessage(chatID, text); err != nil {
		log.Printf("[tg][notify] stage completion: %v", err)
	}
}

// NotifyLeadAccepted pings the birddog when a role claims their lead.
func (t *TelegramService) NotifyLeadAccepted(chatID int64, leadName, role, actorName string) {
	text := fmt.Sprintf("🤝 <b>%s</b>: accepted by %s (%s)", leadName, actorName, role)
	if err := t.SendMessage(chatID, text); err != nil {
		log.Printf("[tg][notify] lead accepted: %v", err)
	}
}
