package handlers_events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pople/internal/models/plevents"
)

type EventsHandler struct {
	store *plevents.Store
}

func NewEventsHandler(store *plevents.Store) *EventsHandler {
	return &EventsHandler{store: store}
}

// List retourne une page d'événements avec les métadonnées de
// pagination. Le total est calculé avec le même prédicat que la page.
func (eh *EventsHandler) List(c *gin.Context) {
	params := plevents.ParamsFromContext(c)
	plan := params.Normalize()

	events, err := eh.store.List(plan)
	if err != nil {
		serverError(c, err, "event list query failed")
		return
	}
	total, err := eh.store.Count(plan)
	if err != nil {
		serverError(c, err, "event count query failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"pagination": gin.H{
			"page":       plan.Page,
			"pageSize":   plan.PageSize,
			"total":      total,
			"totalPages": plan.TotalPages(total),
		},
	})
}

// Get cherche par id numérique, sinon par slug.
func (eh *EventsHandler) Get(c *gin.Context) {
	key := c.Param("id")

	var event *plevents.Event
	var err error
	if id, convErr := strconv.ParseUint(key, 10, 64); convErr == nil {
		event, err = eh.store.GetByID(uint(id))
	} else {
		event, err = eh.store.GetBySlug(key)
	}
	if errors.Is(err, plevents.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err, "event lookup failed")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (eh *EventsHandler) Create(c *gin.Context) {
	var input plevents.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "잘못된 요청입니다."})
		return
	}
	if err := input.Validate(); err != nil {
		badInput(c, err)
		return
	}

	event, err := eh.store.Create(input)
	if errors.Is(err, plevents.ErrDuplicateSlug) {
		duplicateSlug(c)
		return
	}
	if err != nil {
		serverError(c, err, "event create failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": event.ID, "event": event})
}

func (eh *EventsHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return
	}

	var input plevents.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "잘못된 요청입니다."})
		return
	}
	if err := input.Validate(); err != nil {
		badInput(c, err)
		return
	}

	event, err := eh.store.Update(uint(id), input)
	if errors.Is(err, plevents.ErrNotFound) {
		notFound(c)
		return
	}
	if errors.Is(err, plevents.ErrDuplicateSlug) {
		duplicateSlug(c)
		return
	}
	if err != nil {
		serverError(c, err, "event update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": event.ID, "event": event})
}

// Delete est idempotent : supprimer un id inconnu n'est pas une
// erreur, le booléen deleted l'indique.
func (eh *EventsHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return
	}
	deleted, err := eh.store.Delete(uint(id))
	if err != nil {
		serverError(c, err, "event delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}

func badInput(c *gin.Context, err error) {
	resp := gin.H{"ok": false, "error": err.Error()}
	var verr *plevents.ValidationError
	if errors.As(err, &verr) {
		resp["field"] = verr.Field
	}
	c.JSON(http.StatusBadRequest, resp)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "이벤트를 찾을 수 없습니다."})
}

func duplicateSlug(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "이미 사용 중인 슬러그입니다."})
}

func serverError(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "서버 오류가 발생했습니다."})
}
