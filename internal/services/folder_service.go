package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

var ErrFolderNotFound = errors.New("folder not found")

type FolderService interface {
	Create(userID int, name, color string) (*models.LeadFolder, error)
	List(userID int) ([]*models.LeadFolder, error)
	Rename(userID, folderID int, name, color string) (*models.LeadFolder, error)
	Delete(userID, folderID int) error
}

type folderService struct {
	repo repositories.FolderRepository
}

func NewFolderService(repo repositories.FolderRepository) FolderService {
	return &folderService{repo: repo}
}

func (s *folderService) Create(userID int, name, color string) (*models.LeadFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}
	f := &models.LeadFolder{UserID: userID, Name: name, Color: color}
	if err := s.repo.Create(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *folderService) List(userID int) ([]*models.LeadFolder, error) {
	return s.repo.ListByUser(userID)
}

func (s *folderService) Rename(userID, folderID int, name, color string) (*models.LeadFolder, error) {
	f, err := s.owned(userID, folderID)
	if err != nil {
		return nil, err
	}
	if n := strings.TrimSpace(name); n != "" {
		f.Name = n
	}
	if color != "" {
		f.Color = color
	}
	if err := s.repo.Update(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *folderService) Delete(userID, folderID int) error {
	f, err := s.owned(userID, folderID)
	if err != nil {
		return err
	}
	return s.repo.Delete(f.ID)
}

func (s *folderService) owned(userID, folderID int) (*models.LeadFolder, error) {
	f, err := s.repo.GetByID(folderID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.UserID != userID {
		return nil, ErrFolderNotFound
	}
	return f, nil
}
