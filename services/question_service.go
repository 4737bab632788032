package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"anonq/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

// Migrate creates or updates the questions and answers tables.
func (s *QuestionService) Migrate() error {
	return s.db.AutoMigrate(&models.Question{}, &models.Answer{})
}

func (s *QuestionService) AddQuestion(ctx context.Context, content string) (*models.Question, error) {
	question := models.Question{Content: strings.TrimSpace(content)}
	if err := s.db.WithContext(ctx).Create(&question).Error; err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return &question, nil
}

func (s *QuestionService) GetAllQuestions(ctx context.Context) ([]models.Question, error) {
	questions := []models.Question{}
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) GetUnansweredQuestions(ctx context.Context) ([]models.Question, error) {
	questions := []models.Question{}
	err := s.db.WithContext(ctx).
		Where("answered = ?", false).
		Order("timestamp DESC").
		Find(&questions).Error
	return questions, err
}

// GetQuestionByID returns ErrNotFound when no question has the given id,
// including ids that are not valid uuids.
func (s *QuestionService) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	qid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return findQuestion(s.db.WithContext(ctx), qid)
}

func (s *QuestionService) GetAnswerByQuestionID(ctx context.Context, questionID string) (*models.Answer, error) {
	qid, err := uuid.Parse(questionID)
	if err != nil {
		return nil, ErrNotFound
	}
	var answer models.Answer
	err = s.db.WithContext(ctx).Where("question_id = ?", qid).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// AddAnswer records the answer and flips the question's answered flag in a
// single transaction so the two never disagree.
func (s *QuestionService) AddAnswer(ctx context.Context, questionID, content string) (*models.Answer, error) {
	qid, err := uuid.Parse(questionID)
	if err != nil {
		return nil, ErrNotFound
	}

	var answer models.Answer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := findQuestion(tx, qid)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", qid).Count(&existing).Error; err != nil {
			return err
		}
		if question.Answered || existing > 0 {
			return ErrAlreadyAnswered
		}

		answer = models.Answer{
			QuestionID: qid,
			Content:    strings.TrimSpace(content),
		}
		if err := tx.Create(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAnswered
			}
			return fmt.Errorf("insert answer: %w", err)
		}

		if err := tx.Model(&models.Question{}).Where("id = ?", qid).Update("answered", true).Error; err != nil {
			return fmt.Errorf("mark question answered: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// GetAllQA joins answered questions with their answers, newest answer first.
// Questions without a matching answer are left out.
func (s *QuestionService) GetAllQA(ctx context.Context) ([]models.QA, error) {
	var questions []models.Question
	if err := s.db.WithContext(ctx).Where("answered = ?", true).Find(&questions).Error; err != nil {
		return nil, err
	}

	var answers []models.Answer
	if err := s.db.WithContext(ctx).Find(&answers).Error; err != nil {
		return nil, err
	}

	byQuestion := make(map[uuid.UUID]models.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	pairs := []models.QA{}
	for _, q := range questions {
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		pairs = append(pairs, models.QA{Question: q, Answer: a})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Answer.Timestamp.After(pairs[j].Answer.Timestamp)
	})
	return pairs, nil
}

// DeleteQuestion removes a question and its answer. Deleting an id that does
// not exist is not an error.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id string) error {
	qid, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", qid).Delete(&models.Answer{}).Error; err != nil {
			return fmt.Errorf("delete answer: %w", err)
		}
		if err := tx.Delete(&models.Question{}, "id = ?", qid).Error; err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
}

func findQuestion(db *gorm.DB, id uuid.UUID) (*models.Question, error) {
	var question models.Question
	err := db.Where("id = ?", id).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}
