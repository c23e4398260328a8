package viewmodels

import (
	"github.com/crocodeal/crocodealphotographie/pkg/models"
)

type Dashboard struct {
	BaseViewModel

	Runs []models.RunReport
}
