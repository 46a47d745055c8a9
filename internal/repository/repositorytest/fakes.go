// Package repositorytest provides in-memory repository implementations
// for service tests. They mirror the conditional-update semantics of
// the postgres layer, including the sentinel errors.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
)

type ProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*model.Profile
	Roles    *RoleRepo
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)}
}

func (r *ProfileRepo) Seed(profile *model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	copied := *profile
	r.profiles[profile.ID] = &copied
}

func (r *ProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; ok {
		return repository.ErrDuplicate
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *ProfileRepo) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (r *ProfileRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Profile
	for _, id := range ids {
		if profile, ok := r.profiles[id]; ok {
			copied := *profile
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *ProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *ProfileRepo) SetRestricted(ctx context.Context, id uuid.UUID, restricted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	profile.IsRestricted = restricted
	return nil
}

func (r *ProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Profile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		copied := *profile
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *ProfileRepo) DeleteTx(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if _, ok := r.profiles[id]; !ok {
		r.mu.Unlock()
		return repository.ErrNotFound
	}
	delete(r.profiles, id)
	r.mu.Unlock()
	if r.Roles != nil {
		r.Roles.removeAll(id)
	}
	return nil
}

type RoleRepo struct {
	mu     sync.Mutex
	grants []*model.RoleGrant
}

func NewRoleRepo() *RoleRepo {
	return &RoleRepo{}
}

func (r *RoleRepo) Seed(userID uuid.UUID, roles ...model.Role) {
	for _, role := range roles {
		_ = r.Assign(context.Background(), userID, role)
	}
}

func (r *RoleRepo) Assign(ctx context.Context, userID uuid.UUID, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, grant := range r.grants {
		if grant.UserID == userID && grant.Role == role {
			return repository.ErrDuplicate
		}
	}
	r.grants = append(r.grants, &model.RoleGrant{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	})
	return nil
}

func (r *RoleRepo) Remove(ctx context.Context, userID uuid.UUID, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, grant := range r.grants {
		if grant.UserID == userID && grant.Role == role {
			r.grants = append(r.grants[:i], r.grants[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *RoleRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Role
	for _, grant := range r.grants {
		if grant.UserID == userID {
			out = append(out, grant.Role)
		}
	}
	return out, nil
}

func (r *RoleRepo) ListAll(ctx context.Context) ([]*model.RoleGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.RoleGrant, len(r.grants))
	copy(out, r.grants)
	return out, nil
}

func (r *RoleRepo) UsersWithRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, grant := range r.grants {
		if grant.Role == role {
			out = append(out, grant.UserID)
		}
	}
	return out, nil
}

func (r *RoleRepo) removeAll(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.grants[:0]
	for _, grant := range r.grants {
		if grant.UserID != userID {
			kept = append(kept, grant)
		}
	}
	r.grants = kept
}

type MessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*model.Message
	names    map[uuid.UUID]string
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{
		messages: make(map[uuid.UUID]*model.Message),
		names:    make(map[uuid.UUID]string),
	}
}

// NameUser registers a display name used when annotating inbox rows.
func (r *MessageRepo) NameUser(id uuid.UUID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[id] = name
}

func (r *MessageRepo) Create(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = time.Now()
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *MessageRepo) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (r *MessageRepo) ListInbox(ctx context.Context, userID uuid.UUID, roles []model.Role) ([]*model.InboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	isAdmin, isEmployee := false, false
	for _, role := range roles {
		switch role {
		case model.RoleAdmin:
			isAdmin = true
		case model.RoleEmployee:
			isEmployee = true
		}
	}
	var out []*model.InboxMessage
	for _, msg := range r.messages {
		visible := msg.Recipient.UserID != nil && *msg.Recipient.UserID == userID
		if isAdmin && msg.Recipient.Type == model.RecipientTypeAdmin && msg.Recipient.UserID == nil {
			visible = true
		}
		if (isAdmin || isEmployee) && msg.Recipient.Type == model.RecipientTypeAllEmployees {
			visible = true
		}
		if visible {
			copied := *msg
			out = append(out, &model.InboxMessage{Message: copied, SenderName: r.names[msg.SenderID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MessageRepo) ListSent(ctx context.Context, senderID uuid.UUID) ([]*model.SentMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SentMessage
	for _, msg := range r.messages {
		if msg.SenderID == senderID {
			copied := *msg
			out = append(out, &model.SentMessage{Message: copied})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MessageRepo) SetReply(ctx context.Context, id uuid.UUID, reply string, repliedBy uuid.UUID, repliedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	if msg.Reply != nil {
		return repository.ErrAlreadyReplied
	}
	msg.Reply = &reply
	msg.RepliedBy = &repliedBy
	msg.RepliedAt = &repliedAt
	msg.IsRead = false
	return nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(id, func(m *model.Message) { m.IsRead = true })
}

func (r *MessageRepo) MarkRecipientRead(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(id, func(m *model.Message) { m.RecipientRead = true })
}

func (r *MessageRepo) setFlag(id uuid.UUID, apply func(*model.Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	apply(msg)
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

type NotificationRepo struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*model.Notification
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{notifications: make(map[uuid.UUID]*model.Notification)}
}

func (r *NotificationRepo) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range notifications {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		copied := *n
		r.notifications[n.ID] = &copied
	}
	return nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, n := range r.notifications {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(r.notifications, id)
			removed++
		}
	}
	return removed, nil
}

type OrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *OrderRepo) Seed(order *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	r.orders[order.ID] = &copied
}

func (r *OrderRepo) Create(ctx context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *OrderRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error) {
	return r.list(func(o *model.Order) bool { return o.UserID == userID })
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]*model.Order, error) {
	return r.list(func(o *model.Order) bool { return true })
}

func (r *OrderRepo) ListForDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID) ([]*model.Order, error) {
	return r.list(func(o *model.Order) bool {
		return o.DeliveryPersonID != nil && *o.DeliveryPersonID == deliveryPersonID
	})
}

func (r *OrderRepo) ListAwaitingVerification(ctx context.Context) ([]*model.Order, error) {
	return r.list(func(o *model.Order) bool {
		return o.PaymentMethod == model.PaymentMethodBankTransfer &&
			o.PaymentStatus == model.PaymentStatusAwaitingVerification
	})
}

func (r *OrderRepo) list(match func(*model.Order) bool) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Order
	for _, order := range r.orders {
		if match(order) {
			copied := *order
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, deliveredAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = status
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}
	order.UpdatedAt = time.Now()
	return nil
}

func (r *OrderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, payment model.PaymentStatus, status model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.PaymentStatus = payment
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

func (r *OrderRepo) AssignDelivery(ctx context.Context, id, deliveryPersonID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.DeliveryPersonID = &deliveryPersonID
	order.Status = model.OrderStatusOutForDelivery
	order.UpdatedAt = time.Now()
	return nil
}

type ProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *ProductRepo) Seed(product *model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	copied := *product
	r.products[product.ID] = &copied
}

func (r *ProductRepo) Create(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (r *ProductRepo) Update(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	product.UpdatedAt = time.Now()
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	product.IsAvailable = available
	return nil
}

func (r *ProductRepo) List(ctx context.Context, onlyAvailable bool, category string) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Product
	for _, product := range r.products {
		if onlyAvailable && !product.IsAvailable {
			continue
		}
		if category != "" && product.Category != category {
			continue
		}
		copied := *product
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type OutboxRepo struct {
	mu     sync.Mutex
	Events []*model.OutboxEvent
}

func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{}
}

func (r *OutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	copied := *event
	r.Events = append(r.Events, &copied)
	return nil
}

func (r *OutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxEvent
	for _, event := range r.Events {
		if event.Status == string(model.OutboxStatusPending) {
			copied := *event
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string, processedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.Events {
		if event.ID == id {
			event.Status = status
			event.ErrorMessage = errorMessage
			event.ProcessedAt = processedAt
			event.RetryCount++
			return nil
		}
	}
	return repository.ErrNotFound
}

// EventTypes returns the types of all recorded events in order.
func (r *OutboxRepo) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, event := range r.Events {
		out = append(out, event.EventType)
	}
	return out
}
