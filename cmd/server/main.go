package main

import (
	"os"
	"strings"
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/handlers"
	"github.com/rajueekgp/sale-stock-manager/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, relying on environment")
	}

	database.Connect()
	r := gin.Default()

	// CORS for the browser frontend
	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", handlers.Login)
	r.Static("/uploads", "./uploads")

	// Only opens if we explicitly allow it in .env
	if os.Getenv("ALLOW_REGISTRATION") == "true" {
		r.POST("/register", handlers.Register)
		log.Warn("Registration route is OPEN. Disable this in production!")
	} else {
		log.Info("Registration route is disabled")
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// PUBLIC TO STAFF & ADMIN
		api.GET("/products", handlers.GetProducts)
		api.GET("/products/scan/:barcode", handlers.ScanProduct)
		api.GET("/products/:id/batches", handlers.GetProductBatches)
		api.GET("/products/low-stock", handlers.GetLowStock)

		api.GET("/sales", handlers.GetSales)
		api.GET("/sales/:id", handlers.GetSale)
		api.POST("/sales", handlers.CreateSale)
		api.GET("/sales/:id/receipt", handlers.GetReceipt)

		api.GET("/customers", handlers.GetCustomers)
		api.GET("/customers/:id", handlers.GetCustomer)
		api.POST("/customers", handlers.AddCustomer)
		api.PUT("/customers/:id", handlers.UpdateCustomer)

		api.GET("/returns", handlers.GetReturns)
		api.GET("/returns/:id", handlers.GetReturn)
		api.POST("/returns", handlers.CreateReturn)

		api.GET("/credit-notes", handlers.GetCreditNotes)
		api.GET("/credit-notes/:id", handlers.GetCreditNote)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/ask", handlers.AskAI)

			admin.POST("/upload", handlers.UploadImage)
			admin.POST("/products", handlers.AddProduct)
			admin.PUT("/products/:id", handlers.UpdateProduct)
			admin.DELETE("/products/:id", handlers.DeleteProduct)
			admin.POST("/products/:id/batches", handlers.CreateProductBatch)
			admin.POST("/inventory/adjust", handlers.AdjustInventory)

			admin.PUT("/sales/:id", handlers.UpdateSale)
			admin.POST("/sales/:id/void", handlers.VoidSale)
			admin.POST("/sales/:id/refund", handlers.RefundSale)

			admin.GET("/purchases", handlers.GetPurchases)
			admin.GET("/purchases/:id", handlers.GetPurchase)
			admin.POST("/purchases", handlers.CreatePurchase)
			admin.POST("/purchases/:id/receive", handlers.ReceivePurchase)

			admin.PUT("/returns/:id", handlers.UpdateReturn)
			admin.DELETE("/returns/:id", handlers.DeleteReturn)

			admin.POST("/credit-notes/:id/apply", handlers.ApplyCreditNote)

			admin.GET("/reports", handlers.GetSalesReport)
			admin.GET("/reports/valuation", handlers.GetStockValuation)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Infof("Server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start: ", err)
	}
}
