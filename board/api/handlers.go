package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	contractx "github.com/tanpawarit/yearboard/board/contract"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	planx "github.com/tanpawarit/yearboard/board/plan"
	progressx "github.com/tanpawarit/yearboard/board/progress"
	visiblex "github.com/tanpawarit/yearboard/board/visible"
)

type weeklyPlanRequest struct {
	Actions   []planx.Action   `json:"actions"`
	NorthStar *planx.NorthStar `json:"north_star"`
}

func (s *Server) generatePlan(c *fiber.Ctx) error {
	var req weeklyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	return c.JSON(fiber.Map{
		"actions": planx.Generate(req.Actions, req.NorthStar),
	})
}

func (s *Server) listProgress(c *fiber.Ctx) error {
	all, err := s.deps.Progress.GetAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(all)
}

func (s *Server) getProgress(c *fiber.Ctx) error {
	title := c.Params("title")
	value, ok, err := s.deps.Progress.GetCurrent(c.UserContext(), title)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", errNoProgress, progressx.NormalizeKey(title))
	}
	return c.JSON(fiber.Map{
		"key":   progressx.NormalizeKey(title),
		"value": value,
	})
}

type setProgressRequest struct {
	Value *float64 `json:"value"`
}

func (s *Server) setProgress(c *fiber.Ctx) error {
	title := c.Params("title")
	if strings.TrimSpace(title) == "" {
		return badRequest("title is required")
	}

	var req setProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if req.Value == nil {
		return badRequest("value is required")
	}

	if err := s.deps.Progress.SetCurrent(c.UserContext(), title, *req.Value); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"key":   progressx.NormalizeKey(title),
		"value": *req.Value,
	})
}

func (s *Server) getMemory(c *fiber.Ctx) error {
	m, err := s.deps.Memory.Load(c.UserContext(), c.Params("org"))
	if err != nil {
		return err
	}
	return c.JSON(m)
}

func (s *Server) fireEvent(c *fiber.Ctx) error {
	ev, err := memoryx.DecodeEvent(c.Body())
	if err != nil {
		return err
	}
	m, err := s.deps.Memory.Fire(c.UserContext(), c.Params("org"), ev)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

func (s *Server) readVisible(c *fiber.Ctx) error {
	return c.JSON(s.deps.Visible.Read(c.Params("session")))
}

func (s *Server) exposeVisible(c *fiber.Ctx) error {
	var data visiblex.Data
	if err := json.Unmarshal(c.Body(), &data); err != nil {
		return badRequest("visible data must be a JSON object")
	}
	s.deps.Visible.Expose(c.Params("session"), data)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) clearVisible(c *fiber.Ctx) error {
	s.deps.Visible.Clear(c.Params("session"))
	return c.SendStatus(fiber.StatusNoContent)
}

type askCoachRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

func (s *Server) askCoach(c *fiber.Ctx) error {
	if s.deps.Coach == nil {
		return errCoachDisabled
	}

	var req askCoachRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}

	reply, err := s.deps.Coach.Ask(c.UserContext(), contractx.CoachRequest{
		OrgID:     c.Params("org"),
		SessionID: req.SessionID,
		Question:  req.Question,
	})
	if err != nil {
		return err
	}
	return c.JSON(reply)
}
