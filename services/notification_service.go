package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/websocket"
)

// Pusher delivers a live message to the connected sessions of a user.
type Pusher interface {
	SendToUser(userID primitive.ObjectID, msg websocket.Message) error
}

// PushSender is implemented by *messaging.Client.
type PushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService stores in-app notifications and fans them out to the
// websocket hub, FCM and email. Every channel but the store is optional.
type NotificationService struct {
	store      NotificationStore
	users      UserStore
	hub        Pusher
	push       PushSender
	mail       Mailer
	adminEmail string
	now        func() time.Time
}

// NotificationChannels are the optional delivery channels.
type NotificationChannels struct {
	Hub        Pusher
	Push       PushSender
	Mail       Mailer
	AdminEmail string
}

func NewNotificationService(store NotificationStore, users UserStore, ch NotificationChannels) *NotificationService {
	return &NotificationService{
		store:      store,
		users:      users,
		hub:        ch.Hub,
		push:       ch.Push,
		mail:       ch.Mail,
		adminEmail: ch.AdminEmail,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Notify saves a notification for user and delivers it on every channel available.
func (s *NotificationService) Notify(ctx context.Context, user models.User, title, message, typ string, data map[string]string) {
	n := &models.Notification{
		UserID:    user.ID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Data:      data,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to save notification")
	}

	if s.hub != nil {
		err := s.hub.SendToUser(user.ID, websocket.Message{Type: typ, Message: message, Data: n, UserID: user.ID.Hex()})
		if err != nil && !errors.Is(err, websocket.ErrNotConnected) {
			log.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("websocket delivery failed")
		}
	}

	if s.push != nil && user.FCMToken != "" {
		if _, err := s.push.Send(ctx, fcmMessage(user.FCMToken, title, message, typ, data)); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("FCM delivery failed")
		}
	}
}

func fcmMessage(token, title, body, typ string, data map[string]string) *messaging.Message {
	payload := map[string]string{"type": typ, "timestamp": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range data {
		payload[k] = v
	}
	return &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         payload,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "teamboard_tasks",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: title, Body: body},
					Sound: "default",
				},
			},
		},
	}
}

// TaskAssigned tells the assignee about a new task.
func (s *NotificationService) TaskAssigned(ctx context.Context, task models.Task) {
	user, err := s.users.FindByID(ctx, task.AssignedTo.ID)
	if err != nil {
		log.Warn().Err(err).Str("task_id", task.ID.Hex()).Msg("assignee lookup failed, notification skipped")
		return
	}
	s.Notify(ctx, *user, "New task", task.Title, models.NotificationTaskAssigned, map[string]string{
		"taskId":   task.ID.Hex(),
		"priority": task.Priority,
		"dueDate":  task.DueDate.Format("2006-01-02"),
	})
	if s.mail != nil && user.Email != "" {
		body := fmt.Sprintf("Hello %s,\n\nyou have been assigned a new task: %s\nPriority: %s\nDue: %s\n",
			user.Name, task.Title, task.Priority, task.DueDate.Format("02.01.2006"))
		if err := s.mail.Send(user.Email, "New task: "+task.Title, body); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send task email")
		}
	}
}

// CompanyCreated emails the admin inbox about a company created outside the form.
func (s *NotificationService) CompanyCreated(ctx context.Context, c models.Company) {
	if s.mail == nil || s.adminEmail == "" {
		return
	}
	body := fmt.Sprintf("A new %s company was created from a payment.\n\nTransaction: %s\nPrice: %.2f\nCompany id: %s\n\nPlease complete its details in the dashboard.\n",
		c.Plan, c.TransactionID, c.PlanPrice, c.ID.Hex())
	if err := s.mail.Send(s.adminEmail, "New company from payment", body); err != nil {
		log.Warn().Err(err).Str("company_id", c.ID.Hex()).Msg("failed to send admin email")
	}
}

func (s *NotificationService) List(ctx context.Context, viewer models.Viewer, page models.PageRequest) (models.PagedResult, error) {
	page = page.Normalize()
	items, total, err := s.store.ListForUser(ctx, viewer.ID, page)
	if err != nil {
		return models.PagedResult{}, storeErr("Notifications", err)
	}
	return models.PagedResult{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, viewer models.Viewer, id primitive.ObjectID) error {
	ok, err := s.store.MarkRead(ctx, id, viewer.ID)
	if err != nil {
		return storeErr("Notification", err)
	}
	if !ok {
		return apperror.NotFound("Notification")
	}
	return nil
}
