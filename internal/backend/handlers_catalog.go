package backend

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

func (s *Server) handleProducts(c *gin.Context) {
	query := ProductQuery{
		Category: c.Query("category"),
		Search:   c.Query("q"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			fail(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		query.Limit = limit
	}

	products := s.store.Products(query)
	wire := make([]contract.Product, 0, len(products))
	for _, p := range products {
		wire = append(wire, contract.ProductFromDomain(p))
	}
	ok(c, http.StatusOK, wire)
}

func (s *Server) handleProduct(c *gin.Context) {
	p, err := s.store.Product(c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, contract.ProductFromDomain(p))
}

func (s *Server) handleCategories(c *gin.Context) {
	categories := s.store.Categories()
	wire := make([]contract.Category, 0, len(categories))
	for _, cat := range categories {
		wire = append(wire, contract.Category(cat))
	}
	ok(c, http.StatusOK, wire)
}

func (s *Server) handleReviews(c *gin.Context) {
	productID := c.Query("productId")
	if productID == "" {
		fail(c, http.StatusBadRequest, domain.ErrProductIDRequired.Error())
		return
	}

	reviews := s.store.Reviews(productID)
	wire := make([]contract.Review, 0, len(reviews))
	for _, r := range reviews {
		wire = append(wire, contract.ReviewFromDomain(r))
	}
	ok(c, http.StatusOK, wire)
}

func (s *Server) handleCreateReview(c *gin.Context) {
	var wire contract.Review
	if !bindJSON(c, &wire) {
		return
	}

	review := wire.ToDomain()
	review.ID = ""
	review.UserID = currentUser(c).ID
	created, err := s.store.AddReview(review)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusCreated, contract.ReviewFromDomain(created))
}

func (s *Server) handleContact(c *gin.Context) {
	var msg contract.ContactMessage
	if !bindJSON(c, &msg) {
		return
	}
	s.store.AddContact(domain.ContactMessage(msg))
	ok(c, http.StatusCreated, nil)
}
