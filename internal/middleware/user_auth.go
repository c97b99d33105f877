package middleware

import (
	"github.com/gin-gonic/gin"

	"marketplace/internal/models"
)

const accountKey = "account"

func setAccount(c *gin.Context, account *models.Account) {
	c.Set(accountKey, account)
}

// CurrentAccount returns the account Authenticate stored on the context.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	value, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	account, ok := value.(*models.Account)
	return account, ok && account != nil
}
