package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/rag/service"
)

type Handler struct {
	gateway   *service.SearchGateway
	assembler *service.ContextAssembler
	composer  *service.AnswerComposer
	persona   *service.PersonaChat
}

func New(gateway *service.SearchGateway, assembler *service.ContextAssembler, composer *service.AnswerComposer, persona *service.PersonaChat) *Handler {
	return &Handler{
		gateway:   gateway,
		assembler: assembler,
		composer:  composer,
		persona:   persona,
	}
}

// readQuery accepts ?q= / ?query= on any method and a JSON body on POST.
func readQuery(c *gin.Context) (query, limit string, err error) {
	query = c.Query("q")
	if query == "" {
		query = c.Query("query")
	}
	limit = c.Query("limit")

	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		var body queryBody
		if err := c.ShouldBindJSON(&body); err != nil {
			return "", "", apperr.InvalidInput("Invalid JSON body: %v", err)
		}
		if body.Query != "" {
			query = body.Query
		} else if body.Q != "" {
			query = body.Q
		}
		if body.Limit != nil {
			limit = body.limitString()
		}
	}
	return strings.TrimSpace(query), limit, nil
}

// Search handles the search gateway endpoint.
func (h *Handler) Search(c *gin.Context) {
	query, limit, err := readQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	res, err := h.gateway.Search(c.Request.Context(), query, service.ParseLimit(limit))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Context handles the context assembler endpoint.
func (h *Handler) Context(c *gin.Context) {
	query, _, err := readQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	block, err := h.assembler.Build(c.Request.Context(), query)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

// Answer handles the answer composer endpoint.
func (h *Handler) Answer(c *gin.Context) {
	query, _, err := readQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ans, err := h.composer.Answer(c.Request.Context(), query)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ans)
}

// Chat handles the persona chat endpoint.
func (h *Handler) Chat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.InvalidInput("Missing messages"))
		return
	}

	reply, err := h.persona.Reply(c.Request.Context(), body.Messages)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
