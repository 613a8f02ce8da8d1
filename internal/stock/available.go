package stock

import (
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// CheckAvailable fails with the first bucket where removing take would
// leave current below zero.
func CheckAvailable(qrCode string, current, take model.Quantities) error {
	cur := current.Buckets()
	for i, b := range take.Buckets() {
		if b.Value > cur[i].Value {
			return apperr.InsufficientStock(apperr.Shortage{
				QRCode:    qrCode,
				Bucket:    b.Name,
				Requested: b.Value,
				Available: cur[i].Value,
				Shortfall: b.Value - cur[i].Value,
			})
		}
	}
	return nil
}
