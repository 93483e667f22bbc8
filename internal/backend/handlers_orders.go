package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/messaging/kafka"
)

func (s *Server) handleCart(c *gin.Context) {
	ok(c, http.StatusOK, contract.CartFromDomain(s.store.Cart(currentUser(c).ID)))
}

func (s *Server) handleAddToCart(c *gin.Context) {
	var line contract.CartLine
	if !bindJSON(c, &line) {
		return
	}
	cart, err := s.store.AddToCart(currentUser(c).ID, line.ProductID, line.Quantity)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, contract.CartFromDomain(cart))
}

func (s *Server) handleUpdateCart(c *gin.Context) {
	var line contract.CartUpdate
	if !bindJSON(c, &line) {
		return
	}
	cart, err := s.store.SetCartQuantity(currentUser(c).ID, line.ProductID, line.Quantity)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, contract.CartFromDomain(cart))
}

func (s *Server) handleRemoveFromCart(c *gin.Context) {
	cart, err := s.store.SetCartQuantity(currentUser(c).ID, c.Param("productId"), 0)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, contract.CartFromDomain(cart))
}

func (s *Server) handleClearCart(c *gin.Context) {
	s.store.ClearCart(currentUser(c).ID)
	ok(c, http.StatusOK, contract.CartFromDomain(domain.Cart{}))
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req contract.OrderRequest
	if !bindJSON(c, &req) {
		return
	}

	user := currentUser(c)
	order, err := s.store.PlaceOrder(user.ID, req.ItemsToDomain(), contract.ToMinorUnits(req.Total), req.Currency, req.AddressID, req.Notes)
	if err != nil {
		failWith(c, err)
		return
	}

	logger := s.logger.WithField("order_id", order.ID)
	if err := s.publisher.Publish(kafka.TopicOrderEvents, order.ID, kafka.NewOrderEvent(kafka.EventTypeOrderCreated, order)); err != nil {
		s.metrics.RecordPublishFailure()
		logger.WithError(err).Warn("publish order event failed")
	}
	s.metrics.RecordOrderPlaced()
	logger.WithField("amount", order.Amount).Info("order placed")

	ok(c, http.StatusCreated, contract.OrderFromDomain(order))
}

func (s *Server) handleOrders(c *gin.Context) {
	orders, err := s.store.Orders(currentUser(c).ID)
	if err != nil {
		failWith(c, err)
		return
	}
	wire := make([]contract.Order, 0, len(orders))
	for _, o := range orders {
		wire = append(wire, contract.OrderFromDomain(o))
	}
	ok(c, http.StatusOK, wire)
}

func (s *Server) handleOrder(c *gin.Context) {
	order, err := s.store.Order(currentUser(c).ID, c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, contract.OrderFromDomain(order))
}

func (s *Server) handleAddresses(c *gin.Context) {
	ok(c, http.StatusOK, s.store.Addresses(currentUser(c).ID))
}

func (s *Server) handleCreateAddress(c *gin.Context) {
	var addr contract.Address
	if !bindJSON(c, &addr) {
		return
	}
	ok(c, http.StatusCreated, s.store.AddAddress(currentUser(c).ID, domain.Address(addr)))
}

func (s *Server) handleDeleteAddress(c *gin.Context) {
	if !s.store.DeleteAddress(currentUser(c).ID, c.Param("id")) {
		fail(c, http.StatusNotFound, "address not found")
		return
	}
	ok(c, http.StatusOK, nil)
}
