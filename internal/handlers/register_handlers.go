package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
)

// RegisterRoutes sets up all REST routes, injecting dependencies through
// the service container. apiMiddleware is applied to the /api group only.
func RegisterRoutes(r *gin.Engine, services *portssvc.ServiceContainer, apiMiddleware ...gin.HandlerFunc) {
	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	api := r.Group("/api", apiMiddleware...)

	registerAccountRoutes(api, services.Account, services.Ledger)
	registerTransactionRoutes(api, services.Ledger)
}

// RegisterValidations adds decimal-aware binding rules for monetary
// amounts: dgt and dgte compare decimal.Decimal fields exactly, without a
// float round-trip. Call once at startup before serving requests.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("dgt", decimalRule(decimal.Decimal.GreaterThan))
	_ = v.RegisterValidation("dgte", decimalRule(decimal.Decimal.GreaterThanOrEqual))
}

func decimalRule(compare func(decimal.Decimal, decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		baseline, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return compare(value, baseline)
	}
}
