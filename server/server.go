package server

import (
	"os"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/config"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/misc"
)

type Server struct {
	Cfg *config.Config

	r    *gin.Engine
	db   *bolt.DB
	auth *auth.Auth
}

func New(cfg *config.Config, r *gin.Engine) (*Server, error) {
	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		return nil, err
	}
	db := misc.OpenDB(cfg.DBPath, cfg.DBName)
	if err := misc.InitBuckets(db, cfg.AllBuckets()...); err != nil {
		return nil, err
	}

	s := &Server{
		Cfg:  cfg,
		r:    r,
		db:   db,
		auth: auth.New(db, cfg),
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range []string{cfg.Bucket.Sponsor, cfg.Bucket.Influencer, cfg.Bucket.Campaign, cfg.Bucket.Ads} {
			if err := misc.InitIndex(tx, b, 1); err != nil {
				return err
			}
		}
		return s.auth.SeedTx(tx)
	}); err != nil {
		return nil, err
	}

	s.initializeRoutes(r)
	return s, nil
}

func (s *Server) Auth() *auth.Auth { return s.auth }

func (s *Server) Run() error {
	return s.r.Run(s.Cfg.Host + ":" + s.Cfg.Port)
}

func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) initializeRoutes(r *gin.Engine) {
	var (
		api      = r.Group(s.Cfg.APIPath)
		verified = api.Group("", s.auth.VerifyUser)
		// campaign reads tolerate anonymous callers; they only ever see
		// public, running campaigns
		soft = api.Group("", s.auth.VerifyUserSoft)

		sponsorOnly = s.auth.CheckScopes(auth.ScopeMap{
			auth.SponsorScope: {Get: true, Put: true, Post: true, Delete: true},
		})
		partiesOnly = s.auth.CheckScopes(auth.ScopeMap{
			auth.SponsorScope:    {Get: true, Put: true, Post: true, Delete: true},
			auth.InfluencerScope: {Get: true, Put: true, Post: true},
		})
		// empty map: CheckScopes lets only admins through
		adminOnly = s.auth.CheckScopes(auth.ScopeMap{})
	)

	api.POST("/signUp", signUp(s))
	api.POST("/signIn", s.auth.SignInHandler)
	api.POST("/token/refresh", s.auth.RefreshHandler)

	verified.POST("/signOut", s.auth.SignOutHandler)
	verified.GET("/me", s.auth.MeHandler)
	verified.PUT("/me", updateMe(s))
	verified.PUT("/me/password", changePassword(s))

	api.GET("/niches", getNiches())
	api.GET("/adStatuses", getAdStatuses())

	soft.GET("/campaigns", getCampaigns(s))
	soft.GET("/campaigns/:id", getCampaign(s))
	verified.POST("/campaigns", sponsorOnly, postCampaign(s))
	verified.PUT("/campaigns/:id", sponsorOnly, putCampaign(s))
	verified.DELETE("/campaigns/:id", sponsorOnly, delCampaign(s))
	verified.GET("/campaigns/:id/adRequests", adsForCampaign(s))

	verified.POST("/adRequests", sponsorOnly, createAdRequest(s))
	verified.PUT("/adRequests/:id", sponsorOnly, updateAdRequest(s))
	verified.POST("/adRequests/:id/negotiate", partiesOnly, negotiateAdRequest(s))
	verified.POST("/adRequests/:id/accept", partiesOnly, acceptNegotiation(s))
	verified.POST("/adRequests/:id/status", partiesOnly, setAdStatus(s))
	verified.DELETE("/adRequests/:id", sponsorOnly, delAdRequest(s))

	verified.GET("/influencers/:id/adRequests", adsForInfluencer(s))

	admin := verified.Group("/admin", adminOnly)
	admin.POST("/users/:id/flag", flagUser(s))
	admin.POST("/users/:id/unflag", unflagUser(s))
	admin.DELETE("/users/:id", delUser(s))
	admin.POST("/users/:id/restore", restoreUser(s))
	admin.POST("/users/:id/roles", assignRole(s))
	admin.POST("/sponsors/:id/verification", advanceVerification(s))
}
