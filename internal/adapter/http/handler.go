package http

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cv-builder/internal/auth"
	"cv-builder/internal/codec"
	"cv-builder/internal/render"
	"cv-builder/internal/section"
	"cv-builder/internal/theme"
	"cv-builder/internal/usecase"
)

// Response headers carrying snapshot metadata.
const (
	HeaderVersion = "X-CV-Version"
	HeaderDigest  = "X-CV-Digest"
	HeaderStale   = "X-CV-Stale"
	HeaderIssues  = "X-CV-Issues"
)

type Handler struct {
	sessions *usecase.Sessions
	registry *section.Registry
	log      *slog.Logger
}

func NewHandler(s *usecase.Sessions, reg *section.Registry, log *slog.Logger) *Handler {
	if reg == nil {
		reg = section.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{sessions: s, registry: reg, log: log}
}

// Register mounts the routes; mw guards the per-identity document routes.
func (h *Handler) Register(r fiber.Router, mw fiber.Handler) {
	r.Get("/api/themes", h.Themes)
	r.Get("/api/sections", h.Sections)

	r.Get("/api/cv", mw, h.GetDocument)
	r.Put("/api/cv", mw, h.PutDocument)
	r.Post("/api/cv/import", mw, h.Import)
	r.Get("/api/cv/export.json", mw, h.ExportJSON)
	r.Get("/api/cv/export/:format", mw, h.Export)
	r.Get("/api/cv/preview.html", mw, h.PreviewHTML)
	r.Post("/api/cv/tailor", mw, h.Tailor)
	r.Get("/api/cv/checks", mw, h.Checks)
}

func (h *Handler) editor(c *fiber.Ctx) *usecase.Editor {
	return h.sessions.Get(c.UserContext(), auth.FromCtx(c).Subject)
}

func (h *Handler) sendSnapshot(c *fiber.Ctx, snap usecase.Snapshot) error {
	body, err := codec.Encode(snap.Doc)
	if err != nil {
		return err
	}
	c.Set(HeaderVersion, strconv.FormatUint(snap.Version, 10))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

func (h *Handler) GetDocument(c *fiber.Ctx) error {
	return h.sendSnapshot(c, h.editor(c).Current())
}

// PutDocument replaces the document. With an If-Match version the write only
// succeeds if that version is still current.
func (h *Handler) PutDocument(c *fiber.Ctx) error {
	d, err := codec.Decode(c.Body())
	if err != nil {
		return err
	}
	ed := h.editor(c)
	var snap usecase.Snapshot
	if m := strings.Trim(c.Get(fiber.HeaderIfMatch), `" `); m != "" {
		base, perr := strconv.ParseUint(m, 10, 64)
		if perr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "If-Match must be a document version")
		}
		snap, err = ed.ApplyIfCurrent(c.UserContext(), base, d)
	} else {
		snap, err = ed.Replace(c.UserContext(), d)
	}
	if err != nil {
		return err
	}
	return h.sendSnapshot(c, snap)
}

// Import accepts a cv-data.json file as multipart field "file" or as the raw
// request body.
func (h *Handler) Import(c *fiber.Ctx) error {
	data := c.Body()
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		if data, err = io.ReadAll(io.LimitReader(f, codec.MaxDocumentSize+1)); err != nil {
			return err
		}
	}
	snap, err := h.editor(c).Import(c.UserContext(), data)
	if err != nil {
		return err
	}
	return h.sendSnapshot(c, snap)
}

func (h *Handler) sendArtifact(c *fiber.Ctx, res usecase.ExportResult, attachment bool) error {
	a := res.Artifact
	c.Set(HeaderVersion, strconv.FormatUint(res.Version, 10))
	c.Set(HeaderDigest, a.Digest)
	if res.Stale {
		c.Set(HeaderStale, "true")
	}
	if len(a.Issues) > 0 {
		c.Set(HeaderIssues, strconv.Itoa(len(a.Issues)))
	}
	c.Set(fiber.HeaderContentType, a.MimeType)
	if attachment {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
	}
	return c.Send(a.Data)
}

func (h *Handler) ExportJSON(c *fiber.Ctx) error {
	res, err := h.editor(c).ExportJSON(c.UserContext())
	if err != nil {
		return err
	}
	return h.sendArtifact(c, res, true)
}

func (h *Handler) Export(c *fiber.Ctx) error {
	f, err := render.ParseFormat(c.Params("format"))
	if err != nil {
		return err
	}
	res, err := h.editor(c).Export(c.UserContext(), f)
	if err != nil {
		return err
	}
	return h.sendArtifact(c, res, f != render.FormatPreview)
}

func (h *Handler) PreviewHTML(c *fiber.Ctx) error {
	res, err := h.editor(c).Export(c.UserContext(), render.FormatHTML)
	if err != nil {
		return err
	}
	return h.sendArtifact(c, res, false)
}

func (h *Handler) Tailor(c *fiber.Ctx) error {
	var req usecase.TailorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	job, err := h.editor(c).Tailor(c.UserContext(), req)
	if err != nil {
		status, code := mapError(err)
		return writeError(c, status, code, err.Error(), job)
	}
	return c.JSON(job)
}

func (h *Handler) Checks(c *fiber.Ctx) error {
	return c.JSON(h.editor(c).Checks())
}

type themeInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) Themes(c *fiber.Ctx) error {
	out := []themeInfo{}
	for _, id := range theme.IDs() {
		th, _ := theme.Lookup(id)
		out = append(out, themeInfo{ID: id, Name: th.Name})
	}
	return c.JSON(out)
}

type sectionInfo struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Kind   string         `json:"kind"`
	Editor section.Editor `json:"editor"`
}

func (h *Handler) Sections(c *fiber.Ctx) error {
	out := []sectionInfo{}
	for _, id := range h.registry.Known() {
		hd := h.registry.Resolve(id)
		out = append(out, sectionInfo{ID: id, Label: hd.Label, Kind: string(hd.Kind), Editor: hd.Editor})
	}
	return c.JSON(out)
}
