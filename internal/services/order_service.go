package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/metrics"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/printhub/printhub-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OrderConfig holds pricing and checkout settings
type OrderConfig struct {
	TaxRate  float64
	Currency string
	KeyID    string
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	gateway     PaymentGateway
	activity    ActivityLogService
	publisher   events.Publisher
	metrics     *metrics.Metrics
	log         *zap.Logger
	cfg         OrderConfig

	now func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	gateway PaymentGateway,
	activity ActivityLogService,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
	cfg OrderConfig,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		gateway:     gateway,
		activity:    activity,
		publisher:   publisher,
		metrics:     m,
		log:         log,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Create checks stock, prices the cart and opens a gateway order.
// Stock is not reserved here; it is only decremented once payment is verified.
func (s *orderService) Create(ctx context.Context, userID primitive.ObjectID, req *models.CreateOrderRequest, meta models.RequestMeta) (*models.CheckoutResponse, error) {
	lines, err := mergeCart(req.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.productRepo.FindByID(ctx, line.productID)
		if err != nil {
			return nil, notFound(err, "product "+line.productID.Hex())
		}
		if product.Quantity < line.quantity {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.quantity,
			Price:     product.Price,
		})
	}

	totals := utils.ComputeTotals(items, s.cfg.TaxRate)
	amount := utils.ToMinorUnits(totals.Total)

	orderID := primitive.NewObjectID()
	remote, err := s.gateway.CreateOrder(ctx, amount, s.cfg.Currency, orderID.Hex(), map[string]string{
		"kind":   "order",
		"userId": userID.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	order := &models.Order{
		ID:              orderID,
		UserID:          userID,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Currency:        s.cfg.Currency,
		Status:          models.OrderStatusPending,
		RazorpayOrderID: remote.ID,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.IncOrdersCreated()
	s.activity.Record(ctx, activity(&userID, models.ActionOrderCreated, "created order "+order.ID.Hex(), meta,
		map[string]interface{}{
			"orderId":         order.ID.Hex(),
			"razorpayOrderId": remote.ID,
			"total":           order.Total,
		}))

	return &models.CheckoutResponse{
		Order:     order,
		KeyID:     s.cfg.KeyID,
		Amount:    amount,
		Currency:  s.cfg.Currency,
		GatewayID: remote.ID,
	}, nil
}

type cartLine struct {
	productID primitive.ObjectID
	quantity  int
}

// mergeCart folds duplicate product ids together, keeping first-seen order
func mergeCart(items []models.CartItem) ([]cartLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}
	index := make(map[primitive.ObjectID]int, len(items))
	lines := make([]cartLine, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
		}
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid product id %q", ErrInvalidInput, item.ProductID)
		}
		if i, ok := index[id]; ok {
			lines[i].quantity += item.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, cartLine{productID: id, quantity: item.Quantity})
	}
	return lines, nil
}

// VerifyPayment checks the checkout signature and settles the order
func (s *orderService) VerifyPayment(ctx context.Context, userID primitive.ObjectID, req *models.VerifyPaymentRequest, meta models.RequestMeta) (*models.Order, error) {
	order, err := s.orderRepo.FindByRazorpayOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %w", ErrNotFound)
	}

	switch order.Status {
	case models.OrderStatusPending:
	case models.OrderStatusPaid:
		return order, nil
	default:
		return nil, ErrOrderProcessed
	}

	if !s.gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if _, err := s.orderRepo.MarkFailed(ctx, order.ID, req.RazorpayPaymentID); err != nil {
			return nil, err
		}
		s.metrics.ObservePayment("order", "failed")
		s.activity.Record(ctx, activity(&userID, models.ActionPaymentFailed, "signature mismatch for order "+order.ID.Hex(), meta,
			map[string]interface{}{
				"orderId":           order.ID.Hex(),
				"razorpayPaymentId": req.RazorpayPaymentID,
			}))
		return nil, ErrInvalidSignature
	}

	return s.settle(ctx, order, req.RazorpayPaymentID, req.RazorpaySignature, meta)
}

// settle marks a pending order paid, then decrements stock for each line.
// When the order was settled concurrently the stored copy is returned untouched.
func (s *orderService) settle(ctx context.Context, order *models.Order, paymentID, signature string, meta models.RequestMeta) (*models.Order, error) {
	paidAt := s.now()
	changed, err := s.orderRepo.MarkPaid(ctx, order.ID, paymentID, signature, paidAt)
	if err != nil {
		return nil, err
	}
	if !changed {
		current, err := s.orderRepo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, notFound(err, "order")
		}
		if current.Status == models.OrderStatusPaid {
			return current, nil
		}
		return nil, ErrOrderProcessed
	}

	for _, item := range order.Items {
		if err := s.productRepo.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.log.Error("failed to decrement stock",
				zap.String("orderId", order.ID.Hex()),
				zap.String("productId", item.ProductID.Hex()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}

	order.Status = models.OrderStatusPaid
	order.RazorpayPaymentID = paymentID
	order.RazorpaySignature = signature
	order.PaidAt = &paidAt

	s.metrics.ObservePayment("order", "success")
	s.activity.Record(ctx, activity(&order.UserID, models.ActionPaymentVerified, "payment verified for order "+order.ID.Hex(), meta,
		map[string]interface{}{
			"orderId":           order.ID.Hex(),
			"razorpayPaymentId": paymentID,
			"total":             order.Total,
		}))
	publish(ctx, s.publisher, s.log, s.metrics, events.SubjectOrderPaid, events.OrderPaid{
		OrderID:   order.ID.Hex(),
		UserID:    order.UserID.Hex(),
		PaymentID: paymentID,
		Total:     order.Total,
		Currency:  order.Currency,
		At:        paidAt,
	})
	return order, nil
}

// ApplyGatewayPayment settles an order from a webhook delivery.
// A reported failure only records the attempt and leaves the order pending,
// since checkout lets the customer retry against the same gateway order.
func (s *orderService) ApplyGatewayPayment(ctx context.Context, gatewayOrderID, paymentID string, captured bool) error {
	order, err := s.orderRepo.FindByRazorpayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return notFound(err, "order")
	}
	if order.Status != models.OrderStatusPending {
		return nil
	}

	meta := models.RequestMeta{UserAgent: "razorpay-webhook"}
	if !captured {
		s.metrics.ObservePayment("order", "failed")
		s.activity.Record(ctx, activity(&order.UserID, models.ActionPaymentFailed, "gateway reported a failed attempt for order "+order.ID.Hex(), meta,
			map[string]interface{}{"orderId": order.ID.Hex(), "razorpayPaymentId": paymentID}))
		return nil
	}

	_, err = s.settle(ctx, order, paymentID, "", meta)
	if errors.Is(err, ErrOrderProcessed) {
		return nil
	}
	return err
}

func (s *orderService) ListMine(ctx context.Context, userID primitive.ObjectID, page, limit int) (*models.Page[*models.Order], error) {
	return s.List(ctx, models.OrderFilter{UserID: &userID}, page, limit)
}

func (s *orderService) GetMine(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %w", ErrNotFound)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter models.OrderFilter, page, limit int) (*models.Page[*models.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	orders, total, err := s.orderRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	return newPage(orders, total, page, limit), nil
}

func (s *orderService) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

// UpdateStatus applies an admin status change allowed by the whitelist
func (s *orderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, to models.OrderStatus, actor primitive.ObjectID, meta models.RequestMeta) (*models.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	changed, err := s.orderRepo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}
	order.Status = to
	order.UpdatedAt = s.now()

	s.activity.Record(ctx, activity(idPtr(actor), models.ActionOrderStatusUpdated,
		fmt.Sprintf("order %s: %s -> %s", id.Hex(), from, to), meta,
		map[string]interface{}{"orderId": id.Hex(), "from": string(from), "to": string(to)}))
	publish(ctx, s.publisher, s.log, s.metrics, events.SubjectOrderStatusUpdated, events.OrderStatusUpdated{
		OrderID: id.Hex(),
		From:    string(from),
		To:      string(to),
		At:      order.UpdatedAt,
	})
	return order, nil
}

// Refund returns the full payment through the gateway and marks the order refunded
func (s *orderService) Refund(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !refundableStatuses[order.Status] || order.RazorpayPaymentID == "" {
		return nil, fmt.Errorf("%w in status %s", ErrNotRefundable, order.Status)
	}

	refund, err := s.gateway.Refund(ctx, order.RazorpayPaymentID, utils.ToMinorUnits(order.Total))
	if err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	from := order.Status
	changed, err := s.orderRepo.MarkRefunded(ctx, id, from, refund.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		s.log.Error("refund issued but order changed concurrently",
			zap.String("orderId", id.Hex()),
			zap.String("refundId", refund.ID))
		return nil, ErrOrderProcessed
	}
	order.Status = models.OrderStatusRefunded
	order.RazorpayRefundID = refund.ID

	s.activity.Record(ctx, activity(idPtr(actor), models.ActionOrderRefunded, "refunded order "+id.Hex(), meta,
		map[string]interface{}{"orderId": id.Hex(), "refundId": refund.ID, "from": string(from)}))
	return order, nil
}
