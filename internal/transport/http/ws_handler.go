package http

import (
	"encoding/json"
	"log"
	"net/http"

	"overlay-timeline-service/internal/app"
	"overlay-timeline-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.PreviewService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PreviewService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type timeUpdatePayload struct {
	Time float64 `json:"t"`
}

type addElementPayload struct {
	Type domain.ElementType `json:"type"`
	X    float64            `json:"x"`
	Y    float64            `json:"y"`
}

type updateElementPayload struct {
	ID            string                  `json:"id"`
	Content       *string                 `json:"content"`
	X             *float64                `json:"x"`
	Y             *float64                `json:"y"`
	Width         *float64                `json:"width"`
	Height        *float64                `json:"height"`
	Timestamp     *float64                `json:"timestamp"`
	EndTime       *float64                `json:"endTime"`
	ZIndex        *int                    `json:"zIndex"`
	QuestionType  *string                 `json:"questionType"`
	Options       []string                `json:"options"`
	CorrectAnswer *string                 `json:"correctAnswer"`
	Quiz          *domain.InteractiveQuiz `json:"quiz"`
	Style         map[string]any          `json:"style"`
}

type geometryPayload struct {
	ID string `json:"id"`
	domain.GeometryUpdate
}

type elementIDPayload struct {
	ID string `json:"id"`
}

type clickPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// preview use cases. The client on the far end is both the playback
// surface (it sends time updates and obeys pause/resume) and the renderer
// (it paints frames).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		http.Error(w, "missing projectId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	preview, joined := h.service.Open(r.Context(), projectID)
	defer h.service.Leave(r.Context(), projectID)

	updates, cancel := preview.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow
	// concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundEvent(event):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(preview, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func outboundEvent(event app.PreviewEvent) outboundMessage[any] {
	switch {
	case event.Command != "":
		return outboundMessage[any]{Type: event.Command, Payload: struct{}{}}
	case event.Result != nil:
		return outboundMessage[any]{Type: "quizResult", Payload: event.Result}
	default:
		return outboundMessage[any]{Type: "frame", Payload: event.Frame}
	}
}

func (h *WSHandler) dispatch(preview *app.Preview, inbound inboundMessage, send chan<- outboundMessage[any]) {
	fail := func(msg string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
	}

	switch inbound.Type {
	case "timeUpdate":
		var payload timeUpdatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid timeUpdate payload")
			return
		}
		preview.TimeUpdate(payload.Time)

	case "addElement":
		var payload addElementPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid addElement payload")
			return
		}
		element, err := preview.AddElement(payload.Type, payload.X, payload.Y)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "elementAdded", Payload: element}

	case "updateElement":
		var payload updateElementPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ID == "" {
			fail("invalid updateElement payload")
			return
		}
		preview.UpdateElement(payload.ID, app.ElementPatch{
			Content:       payload.Content,
			X:             payload.X,
			Y:             payload.Y,
			Width:         payload.Width,
			Height:        payload.Height,
			Timestamp:     payload.Timestamp,
			EndTime:       payload.EndTime,
			ZIndex:        payload.ZIndex,
			QuestionType:  payload.QuestionType,
			Options:       payload.Options,
			CorrectAnswer: payload.CorrectAnswer,
			Quiz:          payload.Quiz,
			Style:         payload.Style,
		})

	case "geometry":
		var payload geometryPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ID == "" {
			fail("invalid geometry payload")
			return
		}
		preview.ApplyGeometry(payload.ID, payload.GeometryUpdate)

	case "select":
		var payload elementIDPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid select payload")
			return
		}
		preview.SelectElement(payload.ID)

	case "click":
		var payload clickPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid click payload")
			return
		}
		if element, ok := preview.HitTest(payload.X, payload.Y); ok {
			preview.SelectElement(element.ID)
		} else {
			preview.SelectElement("")
		}

	case "delete":
		var payload elementIDPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ID == "" {
			fail("invalid delete payload")
			return
		}
		preview.DeleteElement(payload.ID)

	case "bringToFront":
		var payload elementIDPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ID == "" {
			fail("invalid bringToFront payload")
			return
		}
		preview.BringToFront(payload.ID)

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid answer payload")
			return
		}
		if err := preview.AnswerQuiz(payload.OptionID); err != nil {
			fail(err.Error())
		}

	case "next":
		if err := preview.NextQuestion(); err != nil {
			fail(err.Error())
		}

	case "previous":
		preview.PreviousQuestion()

	case "submit":
		if err := preview.SubmitQuiz(); err != nil {
			fail(err.Error())
		}

	case "continue", "cancel":
		preview.CloseQuiz()

	default:
		fail("unsupported message type")
	}
}
