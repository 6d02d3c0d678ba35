package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/services"
)

// maxAvatarUploadBytes caps avatar uploads at 5 MiB.
const maxAvatarUploadBytes = 5 << 20

type StudentHandler struct {
	log            *logger.Logger
	studentService services.StudentService
}

func NewStudentHandler(log *logger.Logger, studentService services.StudentService) *StudentHandler {
	return &StudentHandler{
		log:            log.With("handler", "StudentHandler"),
		studentService: studentService,
	}
}

// GET /api/v1/students/me
func (h *StudentHandler) Me(c *gin.Context) {
	student, err := h.studentService.GetProfile(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}

// PATCH /api/v1/students/me
func (h *StudentHandler) UpdateMe(c *gin.Context) {
	var req services.StudentProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	student, err := h.studentService.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}

// PUT /api/v1/students/me/avatar
func (h *StudentHandler) UploadAvatar(c *gin.Context) {
	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("avatar file is required"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxAvatarUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_file", fmt.Errorf("could not read avatar file"))
		return
	}
	if len(raw) > maxAvatarUploadBytes {
		RespondError(c, http.StatusBadRequest, "file_too_large", fmt.Errorf("avatar file exceeds %d bytes", maxAvatarUploadBytes))
		return
	}

	student, err := h.studentService.SetAvatarFromImage(c.Request.Context(), raw)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}
