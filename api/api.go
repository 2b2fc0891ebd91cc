/*
Copyright 2025 Bengaluru Travel Planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	planner "github.com/suyogupta/bengaluru-travel-planner"
	"github.com/suyogupta/bengaluru-travel-planner/api/middleware"
	"github.com/suyogupta/bengaluru-travel-planner/config"
)

type Api struct {
	planner *planner.Planner
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.GET("/availability", a.CheckAvailability)
	router.GET("/input_schema", a.InputSchema)
	router.GET("/payment-info", a.PaymentInfo)
	router.POST("/start_job", a.StartJob)
	router.GET("/status", a.JobStatus)

	router.GET("/jobs/:job_id", a.GetJob)
	router.GET("/jobs/:job_id/result", a.JobResult)
	router.POST("/jobs/:job_id/confirm-payment", a.ConfirmPayment)

	router.GET("/escrow/info", a.EscrowInfo)
	router.GET("/escrow/payments/:payment_id", a.EscrowPaymentStatus)

	router.POST("/diary/entries", a.SubmitDiaryEntry)
	router.GET("/diary/entries", a.ListDiaryEntries)
	router.GET("/diary/info", a.DiaryInfo)
	router.GET("/diary/wallets/:address/check", a.DiaryCheck)
	router.GET("/diary/wallets/:address/stats", a.WalletStats)

	router.POST("/feedback", a.SubmitFeedback)
	router.GET("/feedback/:job_id", a.GetFeedback)
	router.POST("/feedback/nft", a.MintFeedbackNFT)

	router.GET("/gallery", a.Gallery)
	router.POST("/gallery/:index/like", a.LikeGalleryPhoto)

	return a.router
}

func NewAPI(p *planner.Planner) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.EnableTelemetry {
		r.Use(otelgin.Middleware("bengaluru-travel-planner"))
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	r.POST("/webhook", func(c *gin.Context) {
		var payload map[string]interface{}
		err := c.Bind(&payload)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(payload)
		c.JSON(200, "webhook received")
	})

	return &Api{planner: p, router: r}
}

// InputSchema describes the start_job request body for agent clients.
func (a Api) InputSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"input_data": []gin.H{
			{"id": "plan_type", "type": "string", "name": "Plan type", "data": gin.H{"values": []string{"full-day", "half-day", "evening", "weekend"}}},
			{"id": "people", "type": "string", "name": "Group type", "data": gin.H{"values": []string{"solo", "couple", "family", "friends", "colleagues"}}},
			{"id": "number_of_people", "type": "number", "name": "Number of people"},
			{"id": "location", "type": "string", "name": "Starting location in Bengaluru"},
			{"id": "date_of_plan", "type": "string", "name": "Date of the plan (YYYY-MM-DD)"},
			{"id": "start_time", "type": "string", "name": "Start time (HH:MM)"},
			{"id": "occasion", "type": "string", "name": "Occasion", "data": gin.H{"optional": true}},
			{"id": "inclusions", "type": "option", "name": "Must-include experiences", "data": gin.H{"optional": true}},
			{"id": "budget", "type": "number", "name": "Total budget in INR", "data": gin.H{"optional": true}},
			{"id": "transport_mode", "type": "string", "name": "Preferred transport", "data": gin.H{"optional": true}},
			{"id": "remarks", "type": "string", "name": "Anything else to consider", "data": gin.H{"optional": true}},
		},
	})
}

// CheckAvailability reports readiness of the payment and planning pipeline.
func (a Api) CheckAvailability(c *gin.Context) {
	availability := a.planner.CheckAvailability(c.Request.Context())
	status := http.StatusOK
	if availability.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, availability)
}
