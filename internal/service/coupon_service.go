package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// CouponStatus is the outcome of a coupon lookup
type CouponStatus string

const (
	CouponNone        CouponStatus = "none"
	CouponApplied     CouponStatus = "applied"
	CouponInvalid     CouponStatus = "invalid"
	CouponCheckFailed CouponStatus = "check_failed"
)

// CouponResult is returned to the shopper after applying a code
type CouponResult struct {
	Status  CouponStatus `json:"status"`
	Code    string       `json:"code,omitempty"`
	Percent int          `json:"percent"`
	Message string       `json:"message,omitempty"`
}

// CouponService resolves coupon codes into a discount
type CouponService struct {
	coupons CouponLookup
}

// NewCouponService creates a new coupon service
func NewCouponService(coupons CouponLookup) *CouponService {
	return &CouponService{coupons: coupons}
}

// NormalizeCode trims and upper-cases a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply looks code up and updates the discount of r. A lookup error leaves the discount unchanged.
func (s *CouponService) Apply(ctx context.Context, r *Reconciler, code string) CouponResult {
	ctx, span := util.StartSpan(ctx, "CouponService.Apply")
	defer span.End()

	code = NormalizeCode(code)
	if code == "" {
		return CouponResult{Status: CouponNone, Percent: r.Discount()}
	}

	coupon, err := s.coupons.GetCoupon(ctx, code)
	if err != nil {
		util.GetLogger().Error("Coupon check failed", zap.String("code", code), zap.Error(err))
		util.CouponLookupsTotal.WithLabelValues(string(CouponCheckFailed)).Inc()
		return CouponResult{
			Status:  CouponCheckFailed,
			Code:    code,
			Percent: r.Discount(),
			Message: "Error checking coupon",
		}
	}

	if coupon == nil {
		r.SetDiscount(ctx, 0)
		util.CouponLookupsTotal.WithLabelValues(string(CouponInvalid)).Inc()
		return CouponResult{
			Status:  CouponInvalid,
			Code:    code,
			Message: "Invalid Coupon Code",
		}
	}

	r.SetDiscount(ctx, coupon.Percent)
	percent := r.Discount()
	util.CouponLookupsTotal.WithLabelValues(string(CouponApplied)).Inc()
	return CouponResult{
		Status:  CouponApplied,
		Code:    code,
		Percent: percent,
		Message: fmt.Sprintf("%s Applied! (%d%% OFF)", code, percent),
	}
}
