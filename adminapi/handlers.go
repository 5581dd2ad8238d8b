package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipelinedef/definition"
	"github.com/kbukum/pipelinedef/validation"
)

// reloadRequest is the JSON body for POST /definitions/:name/reload.
type reloadRequest struct {
	Nodes       []definition.NodeInfo  `json:"nodes" binding:"required"`
	Connections definition.Connections `json:"connections"`
}

// validDefinitionName rejects path params that can't possibly name a definition,
// before the request ever reaches the service layer.
func validDefinitionName(c *gin.Context, name string) bool {
	if appErr := validation.New().Required("name", name).MaxLength("name", name, 256).Validate(); appErr != nil {
		respondError(c, appErr)
		return false
	}
	return true
}

func (s *Server) handleReload(c *gin.Context) {
	name := c.Param("name")
	if !validDefinitionName(c, name) {
		return
	}

	var req reloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, ok := s.service.Lookup(name)
	if !ok {
		if _, derr := s.service.Register(c.Request.Context(), name, req.Nodes, req.Connections); derr != nil {
			respondError(c, derr.AppError())
			return
		}
		respondOK(c, gin.H{"name": name, "status": "registered"})
		return
	}

	if derr := def.Reload(c.Request.Context(), req.Nodes, req.Connections); derr != nil {
		respondError(c, derr.AppError())
		return
	}
	respondOK(c, gin.H{"name": name, "status": "reloaded"})
}

func (s *Server) handleRetire(c *gin.Context) {
	name := c.Param("name")
	if !validDefinitionName(c, name) {
		return
	}
	def, ok := s.service.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "definition not found"})
		return
	}
	def.Retire(c.Request.Context())
	respondOK(c, gin.H{"name": name, "status": "retired"})
}

func (s *Server) handleStatus(c *gin.Context) {
	name := c.Param("name")
	if !validDefinitionName(c, name) {
		return
	}
	def, ok := s.service.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "definition not found"})
		return
	}
	state, usage := def.Status()
	respondOK(c, gin.H{
		"name":       name,
		"state":      state.String(),
		"usage":      usage,
		"generation": def.Generation(),
	})
}

func (s *Server) handleMetadata(c *gin.Context) {
	name := c.Param("name")
	if !validDefinitionName(c, name) {
		return
	}

	inputs, derr := s.service.GetInputsInfo(c.Request.Context(), name)
	if derr != nil {
		respondError(c, derr.AppError())
		return
	}
	outputs, derr := s.service.GetOutputsInfo(c.Request.Context(), name)
	if derr != nil {
		respondError(c, derr.AppError())
		return
	}
	respondOK(c, gin.H{"name": name, "inputs": inputs, "outputs": outputs})
}

func (s *Server) handleHealthz(c *gin.Context) {
	health := s.service.Health(c.Request.Context())
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
