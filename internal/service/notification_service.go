package service

import (
	"encoding/json"
	"fmt"
	"log"

	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/internal/ws"
)

// NotificationService persists in-app notifications and pushes status
// events over the WebSocket hub. It implements Notifier; every method is
// fire-and-forget so a broken mailer or hub can never fail the business
// operation that triggered it.
type NotificationService struct {
	repo *repository.NotificationRepository
	hub  *ws.Hub
}

func NewNotificationService(repo *repository.NotificationRepository, hub *ws.Hub) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

func (s *NotificationService) OrderConfirmed(userID, orderID uint, finalAmount int64) {
	go s.notify(userID, "ORDER_CONFIRMED", "Order placed",
		fmt.Sprintf("Your order #%d has been placed (%d VND).", orderID, finalAmount),
		map[string]interface{}{"order_id": orderID, "final_amount": finalAmount})
}

func (s *NotificationService) RentalBooked(userID, rentalID uint, deposit int64) {
	go s.notify(userID, "RENTAL_BOOKED", "Rental booked",
		fmt.Sprintf("Your rental #%d is reserved. Deposit due: %d VND.", rentalID, deposit),
		map[string]interface{}{"rental_id": rentalID, "deposit": deposit})
}

func (s *NotificationService) PaymentPaid(userID uint, kind string, referenceID uint, amount int64) {
	go func() {
		s.notify(userID, "PAYMENT_PAID", "Payment received",
			fmt.Sprintf("We received your payment of %d VND.", amount),
			map[string]interface{}{"kind": kind, "reference_id": referenceID, "amount": amount})

		eventType := "order_completed"
		if kind == domain.PaymentKindRental {
			eventType = "rental_active"
		}
		if s.hub != nil {
			s.hub.PushToUser(userID, ws.StatusEvent{
				Type:        eventType,
				Kind:        kind,
				ReferenceID: referenceID,
				Amount:      amount,
			})
		}
	}()
}

func (s *NotificationService) notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		log.Printf("[Notify] save failed user=%d type=%s: %v", userID, notifType, err)
	}
}
