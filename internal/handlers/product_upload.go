package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/apperr"
	"marketplace/internal/media"
	"marketplace/internal/models"
	"marketplace/internal/services"
)

const (
	defaultImageBytes = 8 << 20

	// formOverhead covers the text fields and multipart framing around the image.
	formOverhead = 1 << 20
)

// multipartLimit bounds the whole request body and the in-memory form.
func multipartLimit(maxImageBytes int64) int64 {
	if maxImageBytes <= 0 {
		maxImageBytes = defaultImageBytes
	}
	return maxImageBytes + formOverhead
}

type productUpload struct {
	Input services.CreateProductInput
	Image []byte
}

func parseMultipartProductRequest(c *gin.Context, maxImageBytes int64) (productUpload, error) {
	limit := multipartLimit(maxImageBytes)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.Request.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return productUpload{}, apperr.Newf(apperr.Validation, "request body too large (max %dMB)", limit>>20)
		}
		return productUpload{}, apperr.Wrap(apperr.Validation, "invalid multipart body", err)
	}

	var upload productUpload
	in := &upload.Input
	in.Name = strings.TrimSpace(c.PostForm("name"))
	in.Description = strings.TrimSpace(c.PostForm("description"))
	in.Category = models.Category(strings.ToLower(strings.TrimSpace(c.PostForm("category"))))

	price, err := parseFloatField(c, "price", true)
	if err != nil {
		return productUpload{}, err
	}
	in.Price = *price

	if in.OriginalPrice, err = parseFloatField(c, "originalPrice", false); err != nil {
		return productUpload{}, err
	}

	if value, ok := c.GetPostForm("stock"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return productUpload{}, invalidField("stock")
		}
		in.Stock = parsed
	}

	if value, ok := c.GetPostForm("isActive"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return productUpload{}, invalidField("isActive")
		}
		in.IsActive = &parsed
	}

	if in.Sizes, err = models.ParseSizes(c.PostFormArray("sizes")...); err != nil {
		return productUpload{}, err
	}

	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return productUpload{}, apperr.New(apperr.Validation, "image file is required")
		}
		return productUpload{}, apperr.Wrap(apperr.Validation, "invalid image upload", err)
	}
	if len(c.Request.MultipartForm.File["image"]) > 1 {
		return productUpload{}, apperr.New(apperr.Validation, "exactly one image file is allowed")
	}
	if upload.Image, err = readImage(file, maxImageBytes); err != nil {
		return productUpload{}, err
	}

	return upload, nil
}

func readImage(file *multipart.FileHeader, maxImageBytes int64) ([]byte, error) {
	if maxImageBytes > 0 && file.Size > maxImageBytes {
		return nil, apperr.Newf(apperr.Validation, "image file too large (max %dMB)", maxImageBytes>>20)
	}

	in, err := file.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid image upload", err)
	}
	defer in.Close()

	reader := io.Reader(in)
	if maxImageBytes > 0 {
		reader = io.LimitReader(in, maxImageBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid image upload", err)
	}
	return data, nil
}

func parseFloatField(c *gin.Context, name string, required bool) (*float64, error) {
	value, ok := c.GetPostForm(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		if required {
			return nil, &apperr.Error{Kind: apperr.Validation, Message: "validation failed", Details: []string{name + " is required"}}
		}
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, invalidField(name)
	}
	return &parsed, nil
}

func invalidField(name string) error {
	return &apperr.Error{Kind: apperr.Validation, Message: "validation failed", Details: []string{name + " is invalid"}}
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}

type productResponse struct {
	*models.Product
	ImageURL string `json:"imageUrl"`
}

func toProductResponse(product *models.Product, publicBase string) productResponse {
	return productResponse{Product: product, ImageURL: media.PublicURL(publicBase, product.ImagePath)}
}

func CreateProduct(products *services.ProductService, maxImageBytes int64, publicBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		upload, err := parseMultipartProductRequest(c, maxImageBytes)
		if err != nil {
			respondError(c, err)
			return
		}

		product, err := products.CreateProduct(c.Request.Context(), account, upload.Input, upload.Image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toProductResponse(product, publicBase))
	}
}
