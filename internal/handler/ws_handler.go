package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/middleware"
	"github.com/edusfera/journal-backend/internal/service"
	ws "github.com/edusfera/journal-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the two live streams: the teacher journal drill-down
// and the student grade feed.
type WSHandler struct {
	journalService *service.JournalService
	gradesService  *service.GradesService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

func NewWSHandler(journalService *service.JournalService, gradesService *service.GradesService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		journalService: journalService,
		gradesService:  gradesService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// JournalStream godoc
// WS /ws/v1/teacher/journal/stream
// Upgrades to WebSocket and drives the journal drill-down: the client sends
// intents, the server pushes state snapshots.
func (h *WSHandler) JournalStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sender := ws.NewSender(conn)
	wsLog := h.log.With().Str("teacher_id", claims.UserID).Logger()

	// The session outlives the upgrade request; its lifetime is the
	// connection's, ended by the deferred Close.
	session := h.journalService.NewSession(context.Background(), claims.UserID)
	defer session.Close()

	go func() {
		for ev := range session.Events() {
			if err := sender.WriteTyped(ws.SessionEventEnvelope{Event: string(ev.Kind), SessionEvent: ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Event write failed")
				return
			}
		}
	}()

	wsLog.Info().Msg("Teacher connected")

	// Open straight into the group list; the client does not ask for it.
	if err := session.Start(context.Background()); err != nil {
		sender.WriteError("failed to load groups")
		return
	}

	for {
		var msg ws.IntentRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if err := h.dispatchIntent(session, sender, &msg); err != nil {
			wsLog.Warn().Err(err).Str("action", string(msg.Action)).Msg("Intent rejected")
			sender.WriteError(err.Error())
		}
	}
}

// dispatchIntent applies one client intent to the session. Returned errors
// go back to the client verbatim; they are all client-safe sentinel text.
func (h *WSHandler) dispatchIntent(session *service.JournalSession, sender *ws.Sender, msg *ws.IntentRequest) error {
	ctx := context.Background()

	switch msg.Action {
	case ws.ActionStart:
		return session.Start(ctx)
	case ws.ActionSelectGroup:
		if msg.GroupID == "" {
			return errors.New("group_id is required")
		}
		return session.SelectGroup(ctx, msg.GroupID)
	case ws.ActionSelectSubject:
		if msg.SubjectID == "" {
			return errors.New("subject_id is required")
		}
		return session.SelectSubject(ctx, msg.SubjectID)
	case ws.ActionChangeDate:
		return session.ChangeDate(ctx, msg.Date)
	case ws.ActionAssignGrade:
		if msg.StudentID == "" {
			return errors.New("student_id is required")
		}
		return session.AssignGrade(ctx, msg.StudentID, msg.Value)
	case ws.ActionBack:
		return session.Back(ctx)
	case ws.ActionPing:
		return sender.WriteTyped(ws.PongResponse{Event: ws.EventPong})
	default:
		return errors.New("unknown action: " + string(msg.Action))
	}
}

// GradeStream godoc
// WS /ws/v1/student/grades/:subject_id/stream
// Pushes full grade snapshots for one subject as they change, with the
// running average recomputed per emission.
func (h *WSHandler) GradeStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	subjectID := c.Param("subject_id")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sender := ws.NewSender(conn)
	wsLog := h.log.With().
		Str("student_id", claims.UserID).
		Str("subject_id", subjectID).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := h.gradesService.SubscribeSubject(ctx, claims.UserID, subjectID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Grade subscription failed")
		sender.WriteError("subscription failed")
		return
	}
	defer sub.Close()

	wsLog.Info().Msg("Student connected")

	go func() {
		for snap := range sub.Updates() {
			grades := make(map[string]string, len(snap))
			for date, v := range snap {
				grades[date] = string(v)
			}
			avg, count := service.SubjectAverage(snap)
			err := sender.WriteTyped(ws.StudentGradesEvent{
				Event:       ws.EventGrades,
				SubjectID:   subjectID,
				Grades:      grades,
				Average:     avg,
				SampleCount: count,
			})
			if err != nil {
				wsLog.Debug().Err(err).Msg("Snapshot write failed")
				return
			}
		}
	}()

	for {
		var msg ws.IntentRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			wsLog.Debug().Msg("Connection closed")
			return
		}
		if msg.Action == ws.ActionPing {
			sender.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		}
	}
}
