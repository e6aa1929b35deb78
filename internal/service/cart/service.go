package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"cartservice/internal/domain"
	"github.com/google/uuid"
)

type cartRepo interface {
	Load(ctx context.Context, cartKey string) (*domain.Cart, error)
	Create(ctx context.Context, cart domain.Cart) error
	Save(ctx context.Context, cart domain.Cart, expectedVersion int64) error
}

type productCatalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// CouponValidator resolves a code to a discount in cents for the given cart
// state, or domain.ErrInvalidCoupon when the code does not apply.
type CouponValidator interface {
	Validate(ctx context.Context, code string, cart domain.Cart) (int64, error)
}

// TaxCalculator prices tax for the cart. The aggregate treats the result as
// an opaque amount.
type TaxCalculator interface {
	TaxCents(ctx context.Context, cart domain.Cart) (int64, error)
}

// ShippingCalculator prices shipping for the cart.
type ShippingCalculator interface {
	ShippingCents(ctx context.Context, cart domain.Cart) (int64, error)
}

// Service is the cart aggregate. Operations on the same cart key are
// mutually exclusive end to end; distinct keys proceed in parallel. Every
// successful mutation recomputes the derived totals, bumps the version by
// exactly one, and persists with compare-and-swap on the prior version.
type Service struct {
	repo             cartRepo
	catalog          productCatalog
	coupons          CouponValidator
	tax              TaxCalculator
	shipping         ShippingCalculator
	logger           *log.Logger
	locks            *keyLocker
	collaboratorWait time.Duration
	currency         string
	now              func() time.Time
	newID            func() string
}

// Options tunes collaborator behavior.
type Options struct {
	// CollaboratorWait bounds each product/tax/shipping/coupon call.
	CollaboratorWait time.Duration
	// Currency is assigned to newly created carts.
	Currency string
}

func New(repo cartRepo, catalog productCatalog, coupons CouponValidator, tax TaxCalculator, shipping ShippingCalculator, logger *log.Logger, opts Options) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.CollaboratorWait <= 0 {
		opts.CollaboratorWait = 3 * time.Second
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &Service{
		repo:             repo,
		catalog:          catalog,
		coupons:          coupons,
		tax:              tax,
		shipping:         shipping,
		logger:           logger,
		locks:            newKeyLocker(),
		collaboratorWait: opts.CollaboratorWait,
		currency:         opts.Currency,
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

// Get returns the cart without creating it.
func (s *Service) Get(ctx context.Context, cartKey string) (domain.Cart, error) {
	cart, err := s.repo.Load(ctx, cartKey)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart.Clone(), nil
}

// GetOrCreate returns the existing cart or creates an empty one at version 1.
func (s *Service) GetOrCreate(ctx context.Context, cartKey string, ownerID *string) (domain.Cart, error) {
	unlock := s.locks.lock(cartKey)
	defer unlock()

	cart, err := s.repo.Load(ctx, cartKey)
	if err == nil {
		return cart.Clone(), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Cart{}, err
	}

	fresh := s.emptyCart(cartKey, ownerID)
	if err := s.repo.Create(ctx, fresh); err != nil {
		return domain.Cart{}, err
	}
	s.logger.Printf("cart service: created cart_key=%s", cartKey)
	return fresh.Clone(), nil
}

// AddItem appends a line or merges into the line with the same product and
// attributes. The price, name, SKU and store are re-snapshotted from the
// catalog on every add. The cart is created if it does not exist yet.
func (s *Service) AddItem(ctx context.Context, cartKey, productID string, quantity int, attributes string, expectedVersion int64) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(productID) == "" {
		return domain.Cart{}, domain.ErrItemNotFound
	}
	return s.mutate(ctx, cartKey, expectedVersion, true, func(ctx context.Context, cart *domain.Cart) error {
		product, err := s.lookupProduct(ctx, productID)
		if err != nil {
			return err
		}
		if idx := cart.FindLine(productID, attributes); idx >= 0 {
			line := &cart.Lines[idx]
			line.Quantity += quantity
			line.UnitPriceCents = product.PriceCents
			line.ProductName = product.Name
			line.ProductSKU = product.SKU
			line.StoreID = product.StoreID
			return nil
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:             s.newID(),
			ProductID:      productID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			StoreID:        product.StoreID,
			Attributes:     attributes,
			UnitPriceCents: product.PriceCents,
			Quantity:       quantity,
			AddedAt:        s.now().UTC(),
		})
		return nil
	})
}

// UpdateItemQuantity sets the quantity of the matching line directly.
// Quantity zero removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, cartKey, productID string, newQuantity int, attributes string, expectedVersion int64) (domain.Cart, error) {
	if newQuantity < 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, cartKey, expectedVersion, false, func(_ context.Context, cart *domain.Cart) error {
		idx := cart.FindLine(productID, attributes)
		if idx < 0 {
			return domain.ErrItemNotFound
		}
		if newQuantity == 0 {
			cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
			return nil
		}
		cart.Lines[idx].Quantity = newQuantity
		return nil
	})
}

// RemoveItem removes the matching line. Removing an absent line fails with
// domain.ErrItemNotFound rather than succeeding silently.
func (s *Service) RemoveItem(ctx context.Context, cartKey, productID, attributes string, expectedVersion int64) (domain.Cart, error) {
	return s.mutate(ctx, cartKey, expectedVersion, false, func(_ context.Context, cart *domain.Cart) error {
		idx := cart.FindLine(productID, attributes)
		if idx < 0 {
			return domain.ErrItemNotFound
		}
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		return nil
	})
}

// ApplyCoupon validates the code against the current cart and stores it.
func (s *Service) ApplyCoupon(ctx context.Context, cartKey, code string, expectedVersion int64) (domain.Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Cart{}, domain.ErrInvalidCoupon
	}
	return s.mutate(ctx, cartKey, expectedVersion, false, func(ctx context.Context, cart *domain.Cart) error {
		discount, err := s.validateCoupon(ctx, code, *cart)
		if err != nil {
			return err
		}
		cart.CouponCode = &code
		cart.CouponDiscountCents = discount
		return nil
	})
}

// RemoveCoupon clears the coupon fields and recomputes totals.
func (s *Service) RemoveCoupon(ctx context.Context, cartKey string, expectedVersion int64) (domain.Cart, error) {
	return s.mutate(ctx, cartKey, expectedVersion, false, func(_ context.Context, cart *domain.Cart) error {
		cart.CouponCode = nil
		cart.CouponDiscountCents = 0
		return nil
	})
}

// Clear empties all lines.
func (s *Service) Clear(ctx context.Context, cartKey string, expectedVersion int64) (domain.Cart, error) {
	return s.mutate(ctx, cartKey, expectedVersion, false, func(_ context.Context, cart *domain.Cart) error {
		cart.Lines = nil
		return nil
	})
}

// mutate runs one all-or-nothing read-modify-write cycle under the per-key
// lock: version precondition, mutation, total recomputation, then a single
// CAS save. Any failure leaves the stored cart untouched.
func (s *Service) mutate(ctx context.Context, cartKey string, expectedVersion int64, createIfMissing bool, fn func(ctx context.Context, cart *domain.Cart) error) (domain.Cart, error) {
	unlock := s.locks.lock(cartKey)
	defer unlock()

	created := false
	cart, err := s.repo.Load(ctx, cartKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) || !createIfMissing {
			return domain.Cart{}, err
		}
		fresh := s.emptyCart(cartKey, nil)
		cart = &fresh
		created = true
	}

	if expectedVersion != 0 && expectedVersion != cart.Version {
		s.logger.Printf("cart service: stale write cart_key=%s expected=%d current=%d", cartKey, expectedVersion, cart.Version)
		return domain.Cart{}, domain.ErrConcurrencyConflict
	}

	prevVersion := cart.Version
	if err := fn(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	if err := s.recompute(ctx, cart); err != nil {
		return domain.Cart{}, err
	}

	cart.Version = prevVersion + 1
	cart.UpdatedAt = s.now().UTC()
	// the cart row is only created once the creating mutation has succeeded,
	// so a rejected first add leaves nothing behind
	if created {
		if err := s.repo.Create(ctx, s.emptyCart(cartKey, nil)); err != nil {
			return domain.Cart{}, err
		}
		s.logger.Printf("cart service: created cart_key=%s on first add", cartKey)
	}
	if err := s.repo.Save(ctx, *cart, prevVersion); err != nil {
		return domain.Cart{}, err
	}
	return cart.Clone(), nil
}

// recompute derives every monetary field from the line state. Line totals
// and the subtotal are exact integer arithmetic; tax, shipping and the
// coupon discount come from collaborators. A coupon that no longer applies
// after the mutation is dropped so code and discount stay consistent.
func (s *Service) recompute(ctx context.Context, cart *domain.Cart) error {
	var subtotal int64
	for i := range cart.Lines {
		cart.Lines[i].TotalCents = cart.Lines[i].UnitPriceCents * int64(cart.Lines[i].Quantity)
		subtotal += cart.Lines[i].TotalCents
	}
	cart.SubtotalCents = subtotal

	tax, err := s.callTax(ctx, *cart)
	if err != nil {
		return err
	}
	shipping, err := s.callShipping(ctx, *cart)
	if err != nil {
		return err
	}
	cart.TaxCents = tax
	cart.ShippingCents = shipping

	if cart.CouponCode != nil {
		discount, err := s.validateCoupon(ctx, *cart.CouponCode, *cart)
		switch {
		case errors.Is(err, domain.ErrInvalidCoupon):
			cart.CouponCode = nil
			cart.CouponDiscountCents = 0
		case err != nil:
			return err
		default:
			cart.CouponDiscountCents = discount
		}
	}

	discount := cart.CouponDiscountCents
	if limit := subtotal + tax + shipping; discount > limit {
		discount = limit
	}
	if discount < 0 {
		discount = 0
	}
	cart.DiscountCents = discount

	total := subtotal + tax + shipping - discount
	if total < 0 {
		total = 0
	}
	cart.TotalCents = total
	return nil
}

func (s *Service) emptyCart(cartKey string, ownerID *string) domain.Cart {
	now := s.now().UTC()
	return domain.Cart{
		CartKey:   cartKey,
		OwnerID:   ownerID,
		Currency:  s.currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) lookupProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.collaboratorWait)
	defer cancel()
	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.logger.Printf("cart service: product lookup product_id=%s error=%v", productID, err)
		return nil, domain.ErrDependencyUnavailable
	}
	return product, nil
}

func (s *Service) validateCoupon(ctx context.Context, code string, cart domain.Cart) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.collaboratorWait)
	defer cancel()
	discount, err := s.coupons.Validate(ctx, code, cart)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCoupon) {
			return 0, domain.ErrInvalidCoupon
		}
		s.logger.Printf("cart service: coupon validation code=%s error=%v", code, err)
		return 0, domain.ErrDependencyUnavailable
	}
	return discount, nil
}

func (s *Service) callTax(ctx context.Context, cart domain.Cart) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.collaboratorWait)
	defer cancel()
	tax, err := s.tax.TaxCents(ctx, cart)
	if err != nil {
		s.logger.Printf("cart service: tax pricing cart_key=%s error=%v", cart.CartKey, err)
		return 0, domain.ErrDependencyUnavailable
	}
	return tax, nil
}

func (s *Service) callShipping(ctx context.Context, cart domain.Cart) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.collaboratorWait)
	defer cancel()
	shipping, err := s.shipping.ShippingCents(ctx, cart)
	if err != nil {
		s.logger.Printf("cart service: shipping pricing cart_key=%s error=%v", cart.CartKey, err)
		return 0, domain.ErrDependencyUnavailable
	}
	return shipping, nil
}
