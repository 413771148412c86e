package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/candleshop/pkg/service"
)

// register godoc
// @Summary Create a customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.RegisterInput true "Account"
// @Success 201 {object} service.Session
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/auth/register [post]
func (g *Gateway) register(c *gin.Context) {
	var in service.RegisterInput
	if !g.bindJSON(c, &in) {
		return
	}
	sess, err := g.svc.Register(c.Request.Context(), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// login godoc
// @Summary Exchange credentials for a token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginInput true "Credentials"
// @Success 200 {object} service.Session
// @Failure 401 {object} errorResponse
// @Router /api/auth/login [post]
func (g *Gateway) login(c *gin.Context) {
	var in service.LoginInput
	if !g.bindJSON(c, &in) {
		return
	}
	sess, err := g.svc.Login(c.Request.Context(), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /api/users/me [get]
func (g *Gateway) me(c *gin.Context) {
	u, err := g.svc.Me(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (g *Gateway) updateProfile(c *gin.Context) {
	var in service.ProfileInput
	if !g.bindJSON(c, &in) {
		return
	}
	u, err := g.svc.UpdateProfile(c.Request.Context(), caller(c), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (g *Gateway) changePassword(c *gin.Context) {
	var in service.PasswordInput
	if !g.bindJSON(c, &in) {
		return
	}
	if err := g.svc.ChangePassword(c.Request.Context(), caller(c), in); err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
