package demo

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const colorsDoc = `
Example endpoint returning a list of colors by palette
This is using docstrings for specifications.
---
tags:
  - colors
parameters:
  - name: palette
    in: path
    type: string
    enum: ['all', 'rgb', 'cmyk']
    required: true
    default: all
definitions:
  Palette:
    type: object
    properties:
      palette_name:
        type: array
        items:
          $ref: '#/definitions/Color'
  Color:
    type: string
responses:
  200:
    description: A list of colors (may be filtered by palette)
    schema:
      $ref: '#/definitions/Palette'
    examples:
      rgb: ['red', 'green', 'blue']
  404:
    description: Unknown palette
    schema:
      $ref: '#/definitions/Error'
`

const checkUserDoc = `
Check a user payload without storing it
---
tags:
  - users
parameters:
  - name: body
    in: body
    required: true
    schema:
      $ref: '#/definitions/User'
responses:
  200:
    description: The payload is a valid User
  400:
    description: The payload does not match the User schema
`

const getPetDoc = `
Get a pet
---
tags:
  - pets
parameters:
  - name: id
    in: path
    type: string
    format: uuid
    required: true
responses:
  200:
    description: The pet
    schema:
      $ref: '#/definitions/Pet'
  404:
    description: No pet with this id
    schema:
      $ref: '#/definitions/Error'
`

const deletePetDoc = `
Delete a pet
---
tags:
  - pets
parameters:
  - name: id
    in: path
    type: string
    format: uuid
    required: true
responses:
  204:
    description: The pet was deleted
  404:
    description: No pet with this id
    schema:
      $ref: '#/definitions/Error'
`

var palettes = map[string][]string{
	"cmyk": {"cyan", "magenta", "yellow", "black"},
	"rgb":  {"red", "green", "blue"},
}

func (a *App) colors(w http.ResponseWriter, r *http.Request) {
	palette := chi.URLParam(r, "palette")
	if palette == "all" {
		respondJSON(w, http.StatusOK, palettes)
		return
	}

	colors, ok := palettes[palette]
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown palette "+strconv.Quote(palette))
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{palette: colors})
}

func (a *App) listUsers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	respondJSON(w, http.StatusOK, a.store.listUsers(limit))
}

// createUser runs after the body was validated against the User schema.
func (a *App) createUser(w http.ResponseWriter, r *http.Request) {
	var u User
	if err := bindJSON(r, &u); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	a.store.addUser(u)
	respondJSON(w, http.StatusCreated, u)
}

func (a *App) checkUser(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (a *App) listPets(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, PetList{Pets: a.store.listPets()})
}

func (a *App) createPet(w http.ResponseWriter, r *http.Request) {
	var req NewPet
	if err := bindJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	respondJSON(w, http.StatusCreated, a.store.addPet(req))
}

func (a *App) getPet(w http.ResponseWriter, r *http.Request) {
	pet, ok := a.store.pet(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "pet not found")
		return
	}

	respondJSON(w, http.StatusOK, pet)
}

func (a *App) deletePet(w http.ResponseWriter, r *http.Request) {
	if !a.store.deletePet(chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "pet not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
