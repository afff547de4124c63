package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skirmish/skirmish/internal/core/flags"
	"github.com/skirmish/skirmish/internal/core/ident"
	"github.com/skirmish/skirmish/internal/core/session"
	"github.com/skirmish/skirmish/internal/core/state"
)

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealth)
	r.GET("/ws", s.handleWebsocket)

	api := r.Group("/api")
	{
		api.GET("/entities", s.handleListEntities)
		api.GET("/entities/:id", s.handleGetEntity)
		api.DELETE("/entities/:id", s.handleDespawn)
		api.POST("/kinds", s.handleRegisterKind)
		api.POST("/spawn", s.handleSpawn)
		api.POST("/entities/:id/damage", s.handleDamage)
		api.POST("/entities/:id/heal", s.handleHeal)
	}
}

// entityView is the JSON shape for one record.
type entityView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	HP       float64 `json:"hp"`
	MaxHP    float64 `json:"max_hp"`
	Behavior string  `json:"behavior"`
	Static   string  `json:"static"`
	Alive    bool    `json:"alive"`
}

func toView(r state.Record) entityView {
	return entityView{
		ID:       r.ID.String(),
		Name:     r.Name,
		Kind:     r.Kind,
		X:        r.X,
		Y:        r.Y,
		HP:       r.HP,
		MaxHP:    r.MaxHP,
		Behavior: r.Behavior.String(),
		Static:   r.Static.String(),
		Alive:    r.Alive(),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"tick_running": s.sess.TickRunning(),
	})
}

func (s *Server) handleListEntities(c *gin.Context) {
	snap := s.sess.Snapshot()
	views := make([]entityView, 0, len(snap))
	for _, r := range snap {
		views = append(views, toView(r))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetEntity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	for _, r := range s.sess.Snapshot() {
		if r.ID == id {
			c.JSON(http.StatusOK, toView(r))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
}

func (s *Server) handleDespawn(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !s.sess.Despawn(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type registerKindRequest struct {
	Kind     string  `json:"kind" binding:"required"`
	Capacity int     `json:"capacity" binding:"required,gt=0"`
	Static   uint32  `json:"static_flags" binding:"required"`
	MaxHP    float64 `json:"max_hp" binding:"required,gt=0"`
	Attack   float64 `json:"attack"`
	Defense  float64 `json:"defense"`
}

func (s *Server) handleRegisterKind(c *gin.Context) {
	var req registerKindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	arch := session.Archetype{
		Static:  flags.Static(req.Static),
		MaxHP:   req.MaxHP,
		Attack:  req.Attack,
		Defense: req.Defense,
	}
	if err := s.sess.RegisterKind(req.Kind, req.Capacity, arch); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusCreated)
}

type spawnRequest struct {
	Kind string  `json:"kind" binding:"required"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) handleSpawn(c *gin.Context) {
	var req spawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.sess.Spawn(req.Kind, req.X, req.Y)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	name, _ := s.sess.GetName(id)
	c.JSON(http.StatusCreated, gin.H{"id": id.String(), "name": name})
}

type amountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (s *Server) handleDamage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.sess.ApplyDamage(id, req.Amount) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found or dead"})
		return
	}
	s.sess.Sync()
	hp, max, _ := s.sess.GetHP(id)
	c.JSON(http.StatusOK, gin.H{"hp": hp, "max_hp": max})
}

func (s *Server) handleHeal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.sess.ApplyHealing(id, req.Amount) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found, dead, or at full hp"})
		return
	}
	s.sess.Sync()
	hp, max, _ := s.sess.GetHP(id)
	c.JSON(http.StatusOK, gin.H{"hp": hp, "max_hp": max})
}

func parseID(c *gin.Context) (ident.ID, bool) {
	id, err := ident.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity id"})
		return ident.Zero, false
	}
	return id, true
}
