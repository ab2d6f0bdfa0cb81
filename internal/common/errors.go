// Package common - errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки ввода
var (
	// ErrInvalidFormat - неверное количество слов во вводе
	ErrInvalidFormat = errors.New("неверный формат ввода")
	// ErrInvalidDate - дата не в формате дд.мм.гггг
	ErrInvalidDate = errors.New("неверный формат даты")
)

// Ошибки хранилища
var (
	// ErrNotFound - запись с таким ключом не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrUnknownDriver - в STORE_DRIVER указан неизвестный драйвер
	ErrUnknownDriver = errors.New("неизвестный драйвер хранилища")
)

// Ошибки конфигурации
var (
	// ErrBadNotifyTime - NOTIFY_TIME не в формате ЧЧ:ММ
	ErrBadNotifyTime = errors.New("время уведомлений должно быть в формате ЧЧ:ММ")
)
