package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sitepass/sitepass/core/visitor"
)

var errInvalidID = echo.NewHTTPError(http.StatusBadRequest, "invalid visitor id")

type visitorApi struct {
	service *visitor.Service
}

func RegisterVisitorAPI(g *echo.Group, svc *visitor.Service) {
	api := visitorApi{service: svc}

	vg := g.Group("/visitors")

	// kiosk flow
	vg.POST("/check", api.visitorCheck)
	vg.POST("/video-progress", api.visitorVideoProgress)
	vg.POST("/quiz", api.visitorQuiz)
	vg.POST("/sign-in", api.visitorSignIn)
	vg.POST("/sign-out-by-name", api.visitorSignOutByName)
	vg.POST("/:id/sign-out", api.visitorSignOut)

	// reporting
	vg.GET("", api.visitorQuery)
	vg.GET("/trained", api.visitorQueryTrained)
	g.GET("/stats", api.stats)

	// manual trigger; the scheduler calls the same sweep daily
	g.POST("/sweep", api.sweep)
}

// Handlers

func (api *visitorApi) visitorCheck(ctx echo.Context) error {
	data := new(visitor.CheckIn)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	res, err := api.service.Check(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *visitorApi) visitorVideoProgress(ctx echo.Context) error {
	data := new(visitor.VideoProgress)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	rec, err := api.service.RecordVideoProgress(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *visitorApi) visitorQuiz(ctx echo.Context) error {
	data := new(visitor.QuizSubmission)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	rec, err := api.service.SubmitQuiz(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *visitorApi) visitorSignIn(ctx echo.Context) error {
	data := new(visitor.SignInRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	vis, err := api.service.SignIn(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, vis)
}

func (api *visitorApi) visitorSignOut(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errInvalidID
	}

	vis, err := api.service.SignOutByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, vis)
}

func (api *visitorApi) visitorSignOutByName(ctx echo.Context) error {
	data := new(visitor.SignOutByName)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	vis, err := api.service.SignOutByName(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, vis)
}

func (api *visitorApi) visitorQuery(ctx echo.Context) error {
	filter := new(visitor.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}

	visitors, err := api.service.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, visitors)
}

func (api *visitorApi) visitorQueryTrained(ctx echo.Context) error {
	visitors, err := api.service.QueryTrained(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, visitors)
}

func (api *visitorApi) stats(ctx echo.Context) error {
	stats, err := api.service.GetStats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *visitorApi) sweep(ctx echo.Context) error {
	summary, err := api.service.OvertimeSweep(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}
