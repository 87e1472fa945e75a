package budget

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	ContractNumber string `json:"contractNumber,omitempty"`
}

type BudgetItemDTO struct {
	ID           int             `json:"id"`
	ItemCode     string          `json:"itemCode"`
	ParentCode   string          `json:"parentCode,omitempty"`
	IsMacro      bool            `json:"isMacro,omitempty"`
	Description  string          `json:"description,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Origin       string          `json:"origin,omitempty"`
	ExternalCode string          `json:"externalCode,omitempty"`
}

type TreeNodeDTO struct {
	BudgetItemDTO
	Children []TreeNodeDTO `json:"children,omitempty"`
}

type BudgetHandler struct {
	service BudgetService
}

func NewBudgetHandler(service BudgetService) *BudgetHandler {
	return &BudgetHandler{service}
}

func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new budget")
	w.Header().Set("Content-Type", "application/json")

	var dto BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.Name == "" {
		http.Error(w, "budget name is required", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), Budget{Name: dto.Name, ContractNumber: dto.ContractNumber})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(budgetToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *BudgetHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	budgets, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]BudgetDTO, 0, len(budgets))
	for _, b := range budgets {
		dtos = append(dtos, budgetToDTO(b))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), budgetId)
	if errors.Is(err, ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(budgetToDTO(b)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), budgetId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BudgetHandler) ImportItems(w http.ResponseWriter, r *http.Request) {
	log.Debug("Importing budget items")
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	var dtos []BudgetItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	items := make([]BudgetItem, 0, len(dtos))
	for _, dto := range dtos {
		items = append(items, dtoToItem(dto))
	}

	stored, err := h.service.ImportItems(r.Context(), budgetId, items)
	if errors.Is(err, ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	storedDtos := make([]BudgetItemDTO, 0, len(stored))
	for _, item := range stored {
		storedDtos = append(storedDtos, itemToDTO(item))
	}
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(storedDtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *BudgetHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	items, err := h.service.GetItems(r.Context(), budgetId)
	if errors.Is(err, ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]BudgetItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, itemToDTO(item))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *BudgetHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	tree, err := h.service.GetTree(r.Context(), budgetId)
	if errors.Is(err, ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]TreeNodeDTO, 0, len(tree))
	for _, node := range tree {
		dtos = append(dtos, nodeToDTO(node))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func pathId(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	idString := mux.Vars(r)[name]
	id, err := strconv.Atoi(idString)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func budgetToDTO(b Budget) BudgetDTO {
	return BudgetDTO{
		ID:             b.ID,
		Name:           b.Name,
		ContractNumber: b.ContractNumber,
	}
}

func itemToDTO(item BudgetItem) BudgetItemDTO {
	return BudgetItemDTO{
		ID:           item.ID,
		ItemCode:     item.ItemCode,
		ParentCode:   item.ParentCode,
		IsMacro:      item.IsMacro,
		Description:  item.Description,
		Unit:         item.Unit,
		Quantity:     item.Quantity,
		Origin:       string(item.Origin),
		ExternalCode: item.ExternalCode,
	}
}

func dtoToItem(dto BudgetItemDTO) BudgetItem {
	return BudgetItem{
		ID:           dto.ID,
		ItemCode:     dto.ItemCode,
		ParentCode:   dto.ParentCode,
		IsMacro:      dto.IsMacro,
		Description:  dto.Description,
		Unit:         dto.Unit,
		Quantity:     dto.Quantity,
		Origin:       ItemOrigin(dto.Origin),
		ExternalCode: dto.ExternalCode,
	}
}

func nodeToDTO(node *TreeNode) TreeNodeDTO {
	dto := TreeNodeDTO{BudgetItemDTO: itemToDTO(node.Item)}
	for _, child := range node.Children {
		dto.Children = append(dto.Children, nodeToDTO(child))
	}
	return dto
}
