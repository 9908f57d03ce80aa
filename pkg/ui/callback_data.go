package ui

import (
	"errors"
	"strconv"
	"strings"
)

const (
	CallbackPrefix     = "b:"
	MaxCallbackDataLen = 64
)

type Kind string

const (
	KindAddBirthday  Kind = "add"
	KindOwnBirthday  Kind = "own"
	KindList         Kind = "list"
	KindSearch       Kind = "search"
	KindSetReminder  Kind = "remind"
	KindHelp         Kind = "help"
	KindManage       Kind = "manage"
	KindEditName     Kind = "ename"
	KindEditDate     Kind = "edate"
	KindEditReminder Kind = "erem"
	KindDelete       Kind = "del"
	KindDeleteYes    Kind = "delyes"
	KindDeleteNo     Kind = "delno"
	KindDupLink      Kind = "duplink"
	KindDupNew       Kind = "dupnew"
	KindSnooze       Kind = "snooze"
	KindDismiss      Kind = "dismiss"
)

// Action is a parsed callback-data token. RecordID is set for
// record-scoped kinds, Days only for snooze.
type Action struct {
	Kind     Kind
	RecordID uint
	Days     int
}

var (
	errInvalidPrefix       = errors.New("invalid callback prefix")
	errInvalidAction       = errors.New("invalid callback action")
	errInvalidValue        = errors.New("invalid callback value")
	errCallbackDataTooLong = errors.New("callback data too long")
)

var simpleKinds = map[Kind]bool{
	KindAddBirthday: true,
	KindOwnBirthday: true,
	KindList:        true,
	KindSearch:      true,
	KindSetReminder: true,
	KindHelp:        true,
	KindDupLink:     true,
	KindDupNew:      true,
	KindDeleteNo:    true,
}

var recordKinds = map[Kind]bool{
	KindManage:       true,
	KindEditName:     true,
	KindEditDate:     true,
	KindEditReminder: true,
	KindDelete:       true,
	KindDeleteYes:    true,
	KindDismiss:      true,
}

func BuildSimpleCallback(kind Kind) (string, error) {
	if !simpleKinds[kind] {
		return "", errInvalidAction
	}
	return validateCallbackData(CallbackPrefix + string(kind))
}

func BuildRecordCallback(kind Kind, recordID uint) (string, error) {
	if !recordKinds[kind] {
		return "", errInvalidAction
	}
	if recordID == 0 {
		return "", errInvalidValue
	}
	data := CallbackPrefix + string(kind) + ":" + strconv.FormatUint(uint64(recordID), 10)
	return validateCallbackData(data)
}

func BuildSnoozeCallback(recordID uint, days int) (string, error) {
	if recordID == 0 || days <= 0 {
		return "", errInvalidValue
	}
	data := CallbackPrefix + string(KindSnooze) + ":" +
		strconv.FormatUint(uint64(recordID), 10) + ":" + strconv.Itoa(days)
	return validateCallbackData(data)
}

func ParseCallbackData(data string) (Action, error) {
	if data == "" {
		return Action{}, errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return Action{}, errCallbackDataTooLong
	}
	if !strings.HasPrefix(data, CallbackPrefix) {
		return Action{}, errInvalidPrefix
	}

	parts := strings.Split(data[len(CallbackPrefix):], ":")
	kind := Kind(parts[0])

	switch len(parts) {
	case 1:
		if !simpleKinds[kind] {
			return Action{}, errInvalidAction
		}
		return Action{Kind: kind}, nil
	case 2:
		if !recordKinds[kind] {
			return Action{}, errInvalidAction
		}
		recordID, err := parseRecordID(parts[1])
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: kind, RecordID: recordID}, nil
	case 3:
		if kind != KindSnooze {
			return Action{}, errInvalidAction
		}
		recordID, err := parseRecordID(parts[1])
		if err != nil {
			return Action{}, err
		}
		days, err := parseDays(parts[2])
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: KindSnooze, RecordID: recordID, Days: days}, nil
	default:
		return Action{}, errInvalidAction
	}
}

func parseRecordID(value string) (uint, error) {
	if !isASCIIUnsignedInt(value) {
		return 0, errInvalidValue
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return 0, errInvalidValue
	}
	return uint(id), nil
}

func parseDays(value string) (int, error) {
	if !isASCIIUnsignedInt(value) {
		return 0, errInvalidValue
	}
	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 || days > 365 {
		return 0, errInvalidValue
	}
	return days, nil
}

func validateCallbackData(data string) (string, error) {
	if len(data) > MaxCallbackDataLen {
		return "", errCallbackDataTooLong
	}
	return data, nil
}

func isASCIIUnsignedInt(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
